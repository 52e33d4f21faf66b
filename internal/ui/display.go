package ui

import (
	"fmt"
	"strings"
)

// PrintTable prints a list of items in a simple table format
// Limits display to 'limit' items
func PrintTable(items []string, title string, limit int) {
	var sb strings.Builder
	rule := strings.Repeat("-", 60)

	fmt.Fprintf(&sb, "\n"+Bold+Blue+"=== %s ==="+Reset+"\n", title)
	fmt.Fprintf(&sb, "%s\n%-5s | %s\n%s\n", rule, "#", "URL", rule)

	count := len(items)
	displayCount := count
	if displayCount > limit {
		displayCount = limit
	}

	for i := 0; i < displayCount; i++ {
		url := items[i]
		if len(url) > 50 {
			url = "..." + url[len(url)-47:]
		}
		fmt.Fprintf(&sb, "%-5d | %s%s%s\n", i+1, Green, url, Reset)
	}

	if count > limit {
		fmt.Fprintf(&sb, "%s\n", rule)
		fmt.Fprintf(&sb, Yellow+"... and %d more files not shown (displaying first %d)."+Reset+"\n", count-limit, limit)
	}
	fmt.Fprintf(&sb, "%s\n", rule)

	write(sb.String())
}

// Banner prints the run header.
func Banner(target, mode string, threads int) {
	Println(Bold+Cyan, `
   __ _ _ __ __ _ _ __   ___  __ _
  / _' | '__/ _' | '_ \ / _ \/ _' |
 | (_| | | | (_| | | | |  __/ (_| |
  \__,_|_|  \__,_|_| |_|\___|\__,_|`)
	Println(Bold+Yellow, "    ARANEA", Reset, " - ", Green, "crawl the surface, read the scripts.")
	Plain("")
	Plain(" URL     :: %s", target)
	Plain(" Mode    :: %s", mode)
	Plain(" Threads :: %d", threads)
	Plain("")
}
