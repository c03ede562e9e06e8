package cli

import (
	"encoding/json"
	"fmt"
	"time"

	wontoncli "github.com/deepnoodle-ai/wonton/cli"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/deepnoodle-ai/synapse/hook"
	"github.com/deepnoodle-ai/synapse/squad"
)

func registerCacheCommands(app *wontoncli.App) {
	group := app.Group("cache").
		Description("Manage the squad discovery cache")

	group.Command("status").
		Description("Show the cache location, age, and freshness").
		NoArgs().
		Run(func(ctx *wontoncli.Context) error {
			parseGlobalFlags(ctx)
			discovery, err := newDiscovery()
			if err != nil {
				return err
			}
			cache := discovery.Cache()
			fmt.Printf("Cache: %s\n", cache.Path())

			age, ok := cache.Age()
			if !ok {
				fmt.Println("State: absent (next hook invocation will scan)")
				return nil
			}
			fmt.Printf("Age: %s (TTL %s)\n", age.Round(time.Second), squad.DefaultTTL)
			if squads, fresh := cache.Read(); fresh {
				fmt.Printf("State: fresh, %d squad(s)\n", len(squads))
			} else {
				fmt.Println("State: stale (next hook invocation will rescan)")
			}
			return nil
		})

	group.Command("clear").
		Description("Remove the cache file").
		NoArgs().
		Run(func(ctx *wontoncli.Context) error {
			parseGlobalFlags(ctx)
			discovery, err := newDiscovery()
			if err != nil {
				return err
			}
			if err := discovery.Cache().Clear(); err != nil {
				return wontoncli.Errorf("clearing cache: %v", err)
			}
			fmt.Println("Cache cleared.")
			return nil
		})

	group.Command("verify").
		Description("Diff the cached squad manifests against a fresh scan").
		NoArgs().
		Run(func(ctx *wontoncli.Context) error {
			parseGlobalFlags(ctx)
			discovery, err := newDiscovery()
			if err != nil {
				return err
			}
			return runCacheVerify(discovery)
		})
}

func newDiscovery() (*squad.Discovery, error) {
	root := rootFlag
	if root == "" {
		var err error
		root, err = hook.FindRoot("")
		if err != nil {
			return nil, wontoncli.Errorf("no %s directory found from cwd", hook.RootDirName)
		}
	}
	return squad.NewDiscovery(root, newLogger()), nil
}

// runCacheVerify compares the cache contents with a fresh scan without
// rewriting the cache, so drift can be observed before it self-heals.
func runCacheVerify(discovery *squad.Discovery) error {
	cached, ok := discovery.Cache().Peek()
	if !ok {
		fmt.Println("No readable cache; nothing to verify.")
		return nil
	}
	fresh := discovery.Scan()

	cachedJSON, err := marshalSquads(cached)
	if err != nil {
		return wontoncli.Errorf("encoding cached squads: %v", err)
	}
	freshJSON, err := marshalSquads(fresh)
	if err != nil {
		return wontoncli.Errorf("encoding scanned squads: %v", err)
	}

	if cachedJSON == freshJSON {
		fmt.Printf("Cache matches the filesystem (%d squad(s)).\n", len(fresh))
		return nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(cachedJSON),
		B:        difflib.SplitLines(freshJSON),
		FromFile: "cached",
		ToFile:   "filesystem",
		Context:  3,
	})
	if err != nil {
		return wontoncli.Errorf("computing diff: %v", err)
	}
	warnStyle.Println("Cache is out of date with the filesystem:")
	fmt.Print(diff)
	return nil
}

func marshalSquads(squads []*squad.Squad) (string, error) {
	data, err := json.MarshalIndent(squads, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
