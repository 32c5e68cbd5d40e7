// Command kennel is a thin command-line front end for kennel database files.
//
// Usage:
//
//	kennel <file> get <key>
//	kennel <file> set <key> <value>
//	kennel <file> delete <key>
//	kennel <file> has <key>
//
// Exit code 0 on success, 1 on usage error or missing key.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"kennel/pkg/kenneldb"
)

const usage = `usage: kennel <file> <get|set|delete|has> <key> [<value>]`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 3 || len(args) > 4 {
		fmt.Fprintln(stderr, usage)
		return 1
	}

	path, verb, key := args[0], args[1], args[2]

	var value string
	switch verb {
	case "set":
		if len(args) != 4 {
			fmt.Fprintln(stderr, usage)
			return 1
		}
		value = args[3]
	case "get", "delete", "has":
		if len(args) != 3 {
			fmt.Fprintln(stderr, usage)
			return 1
		}
	default:
		fmt.Fprintf(stderr, "kennel: unknown verb %q\n%s\n", verb, usage)
		return 1
	}

	err := kenneldb.With(path, func(db *kenneldb.DB) error {
		switch verb {
		case "get":
			v, err := db.Get([]byte(key))
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s\n", v)
		case "set":
			if err := db.Set([]byte(key), []byte(value)); err != nil {
				return err
			}
			return db.Commit()
		case "delete":
			if err := db.Delete([]byte(key)); err != nil {
				return err
			}
			return db.Commit()
		case "has":
			ok, err := db.Has([]byte(key))
			if err != nil {
				return err
			}
			if !ok {
				return kenneldb.ErrKeyNotFound
			}
			fmt.Fprintf(stdout, "%s\n", key)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, kenneldb.ErrKeyNotFound) {
			fmt.Fprintf(stderr, "kennel: key %q not found\n", key)
		} else {
			fmt.Fprintf(stderr, "kennel: %v\n", err)
		}
		return 1
	}
	return 0
}
