// Command exception manages the allow-list directly against the database,
// for operators who do not want to go through the admin API.
//
// Usage:
//
//	exception list
//	exception add <number> <name> [category]
//	exception remove <number>
//	exception restore <number>
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vathakkar/ai-voice-concierge/internal/repository"
	"github.com/vathakkar/ai-voice-concierge/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	if _, err := logger.Init(os.Getenv("LOG_ENV")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		usage()
	}

	repoManager, err := repository.NewManager()
	if err != nil {
		fail("failed to connect to database: %v", err)
	}
	defer repoManager.Close()
	allowlist := repoManager.Allowlist()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "list":
		entries, err := allowlist.List(ctx)
		if err != nil {
			fail("failed to list entries: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println("allow list is empty")
			return
		}
		for _, e := range entries {
			fmt.Printf("%-16s %-20s %-10s added %s\n",
				e.PhoneNumber, e.ContactName, e.Category, e.AddedDate.Format("2006-01-02"))
		}

	case "add":
		if len(os.Args) < 4 {
			usage()
		}
		category := "family"
		if len(os.Args) > 4 {
			category = os.Args[4]
		}
		added, err := allowlist.Add(ctx, os.Args[2], os.Args[3], category)
		if err != nil {
			fail("failed to add entry: %v", err)
		}
		if !added {
			fail("%s already exists; use restore if it was removed", repository.NormalizePhoneNumber(os.Args[2]))
		}
		fmt.Printf("added %s (%s)\n", os.Args[3], repository.NormalizePhoneNumber(os.Args[2]))

	case "remove":
		if len(os.Args) < 3 {
			usage()
		}
		removed, err := allowlist.Remove(ctx, os.Args[2])
		if err != nil {
			fail("failed to remove entry: %v", err)
		}
		if !removed {
			fail("no active entry for %s", repository.NormalizePhoneNumber(os.Args[2]))
		}
		fmt.Printf("removed %s\n", repository.NormalizePhoneNumber(os.Args[2]))

	case "restore":
		if len(os.Args) < 3 {
			usage()
		}
		restored, err := allowlist.Restore(ctx, os.Args[2])
		if err != nil {
			fail("failed to restore entry: %v", err)
		}
		if !restored {
			fail("no inactive entry for %s", repository.NormalizePhoneNumber(os.Args[2]))
		}
		fmt.Printf("restored %s\n", repository.NormalizePhoneNumber(os.Args[2]))

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: exception list | add <number> <name> [category] | remove <number> | restore <number>")
	os.Exit(2)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
