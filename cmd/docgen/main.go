// docgen scans the API handlers for @Title/@Route/@Description/@Response
// annotations and regenerates docs/api.adoc, which the node renders at
// /docs?doc=api.adoc. Run it after changing or adding handlers.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

type Endpoint struct {
	Title       string
	Route       string
	Description string
	Response    string
}

func main() {
	apiDir := "internal/api"
	files, err := os.ReadDir(apiDir)
	if err != nil {
		panic(err)
	}

	var endpoints []Endpoint

	// Regex to match comments
	reTitle := regexp.MustCompile(`// @Title: (.*)`)
	reRoute := regexp.MustCompile(`// @Route: (.*)`)
	reDesc := regexp.MustCompile(`// @Description: (.*)`)
	reResp := regexp.MustCompile(`// @Response: (.*)`)

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".go") || strings.HasSuffix(file.Name(), "_test.go") {
			continue
		}

		f, err := os.Open(filepath.Join(apiDir, file.Name()))
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(f)
		var current Endpoint

		for scanner.Scan() {
			line := scanner.Text()

			if match := reTitle.FindStringSubmatch(line); len(match) > 1 {
				current.Title = strings.TrimSpace(match[1])
			}
			if match := reRoute.FindStringSubmatch(line); len(match) > 1 {
				current.Route = strings.TrimSpace(match[1])
			}
			if match := reDesc.FindStringSubmatch(line); len(match) > 1 {
				current.Description = strings.TrimSpace(match[1])
			}
			if match := reResp.FindStringSubmatch(line); len(match) > 1 {
				current.Response = strings.TrimSpace(match[1])
				// End of block, append and reset
				if current.Title != "" && current.Route != "" {
					endpoints = append(endpoints, current)
					current = Endpoint{}
				}
			}
		}
		f.Close()
	}

	sort.Slice(endpoints, func(i, j int) bool {
		return routePath(endpoints[i].Route) < routePath(endpoints[j].Route)
	})

	generateAdoc(endpoints)
}

// routePath strips the method prefix so sorting groups by path.
func routePath(route string) string {
	if i := strings.Index(route, " "); i >= 0 {
		return route[i+1:]
	}
	return route
}

func generateAdoc(endpoints []Endpoint) {
	var b strings.Builder
	b.WriteString("= API Reference\n")
	b.WriteString(":toc:\n\n")
	b.WriteString("Generated from handler annotations. Do not edit by hand;\n")
	b.WriteString("run `go run ./cmd/docgen` instead.\n\n")

	for _, ep := range endpoints {
		fmt.Fprintf(&b, "== %s\n\n", ep.Title)
		fmt.Fprintf(&b, "`%s`\n\n", ep.Route)
		if ep.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", ep.Description)
		}
		if ep.Response != "" {
			fmt.Fprintf(&b, "Response: `%s`\n\n", ep.Response)
		}
	}

	if err := os.WriteFile(filepath.Join("docs", "api.adoc"), []byte(b.String()), 0644); err != nil {
		panic(err)
	}
	fmt.Println("Generated docs/api.adoc")
}
