// Command postdemo walks a post through the review workflow and prints what a
// reader would see after each step. It exits non-zero if the visible content
// ever differs from the expected value.
package main

import (
	"fmt"
	"os"

	"github.com/gogotex/postflow/internal/post"
	"github.com/gogotex/postflow/pkg/logger"
)

const salad = "I ate a salad for lunch today"

type step struct {
	name string
	run  func(*post.Post)
	want string
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.SetOutput(os.Stderr)

	scenarios := map[string][]step{
		"review then approve": {
			{"add text", func(p *post.Post) { p.AddText(salad) }, ""},
			{"request review", (*post.Post).RequestReview, ""},
			{"approve", (*post.Post).Approve, salad},
		},
		"approve before review": {
			{"add text", func(p *post.Post) { p.AddText(salad) }, ""},
			{"approve", (*post.Post).Approve, ""},
			{"request review", (*post.Post).RequestReview, ""},
			{"approve", (*post.Post).Approve, salad},
		},
	}

	failed := false
	for _, name := range []string{"review then approve", "approve before review"} {
		fmt.Printf("== %s\n", name)
		p := post.New()
		for _, s := range scenarios[name] {
			s.run(p)
			got := p.Content()
			fmt.Printf("%-15s state=%-15s visible=%q\n", s.name, p.State(), got)
			if got != s.want {
				logger.Errorf("%s: after %s expected %q, got %q", name, s.name, s.want, got)
				failed = true
			}
		}
	}
	if failed {
		os.Exit(1)
	}
}
