// Command screenhand exercises the element resolution engine from the
// shell: find templates, search text, inspect windows and pixels, wait
// for elements to appear.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/screenhand/screenhand"
	"github.com/screenhand/screenhand/internal/config"
	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/vision"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfgPath := os.Getenv("SCREENHAND_CONFIG")
	if cfgPath == "" {
		cfgPath = "settings.yaml"
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		fatal(err)
	}

	session, err := screenhand.NewSession(cfg)
	if err != nil {
		fatal(err)
	}
	defer session.Close()

	switch os.Args[1] {
	case "find":
		cmdFind(session, os.Args[2:])
	case "text":
		cmdText(session, os.Args[2:])
	case "type":
		cmdType(session, os.Args[2:])
	case "window":
		cmdWindow(session, os.Args[2:])
	case "wait":
		cmdWait(session, os.Args[2:])
	case "pixel":
		cmdPixel(session, os.Args[2:])
	case "history":
		cmdHistory(session, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: screenhand <command> [flags]

commands:
  find     locate a template image on screen
  text     locate text on screen via OCR
  type     send keystrokes to the focused window
  window   locate a window by title
  wait     wait for a template image to appear
  pixel    read the color of a screen pixel
  history  show recent operations`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "screenhand:", err)
	os.Exit(1)
}

func cmdFind(session *screenhand.Session, args []string) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	confidence := fs.Float64("confidence", 0, "confidence threshold override")
	all := fs.Bool("all", false, "list every match instead of the best")
	debug := fs.String("debug", "", "write the frame with match outlines to this file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal(fmt.Errorf("find requires a template path"))
	}
	template := fs.Arg(0)
	opts := vision.Options{Confidence: *confidence}

	var rects []screenhand.Rect
	if *all {
		matches := session.LocateAll(template, opts)
		for _, m := range matches {
			fmt.Printf("%s confidence=%.3f\n", m.Rect, m.Confidence)
			rects = append(rects, m.Rect)
		}
	} else {
		rect, err := session.Locate(screenhand.Query{
			Type:       "image",
			Template:   template,
			Confidence: confidence,
		})
		if err != nil {
			fatal(err)
		}
		if rect != nil {
			fmt.Printf("%s center=%v\n", rect, rect.Center())
			rects = append(rects, *rect)
		}
	}

	if *debug != "" {
		if err := session.DumpFrame(*debug, rects); err != nil {
			fatal(err)
		}
	}
	if len(rects) == 0 {
		fmt.Println("not found")
		os.Exit(1)
	}
}

func cmdType(session *screenhand.Session, args []string) {
	fs := flag.NewFlagSet("type", flag.ExitOnError)
	key := fs.String("key", "", "tap a named key instead of typing text")
	fs.Parse(args)

	if *key != "" {
		if err := session.PressKey(*key); err != nil {
			fatal(err)
		}
		return
	}
	if fs.NArg() != 1 {
		fatal(fmt.Errorf("type requires a text argument or -key"))
	}
	if err := session.TypeText(fs.Arg(0)); err != nil {
		fatal(err)
	}
}

func cmdText(session *screenhand.Session, args []string) {
	fs := flag.NewFlagSet("text", flag.ExitOnError)
	exact := fs.Bool("exact", false, "require an exact token match")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal(fmt.Errorf("text requires a search string"))
	}

	rects := session.FindText(fs.Arg(0), nil, *exact)
	if len(rects) == 0 {
		fmt.Println("not found")
		os.Exit(1)
	}
	for _, r := range rects {
		fmt.Println(r)
	}
}

func cmdWindow(session *screenhand.Session, args []string) {
	fs := flag.NewFlagSet("window", flag.ExitOnError)
	exact := fs.Bool("exact", false, "require an exact title match")
	activate := fs.Bool("activate", false, "raise and focus the window")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal(fmt.Errorf("window requires a title"))
	}

	info, err := session.Windows().FindByTitle(fs.Arg(0), *exact)
	if err != nil {
		fatal(err)
	}
	if info == nil {
		fmt.Println("not found")
		os.Exit(1)
	}
	fmt.Printf("%q class=%q rect=%s visible=%t maximized=%t\n",
		info.Title, info.Class, info.Rect, info.Visible, info.Maximized)

	if *activate && !session.Windows().Activate(info.Handle) {
		fatal(fmt.Errorf("activation request failed"))
	}
}

func cmdWait(session *screenhand.Session, args []string) {
	fs := flag.NewFlagSet("wait", flag.ExitOnError)
	timeout := fs.Duration("timeout", 0, "overall wait timeout")
	interval := fs.Duration("interval", 0, "poll interval")
	stability := fs.Duration("stable", 0, "require continuous presence for this long")
	gone := fs.Bool("gone", false, "wait for the template to disappear")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal(fmt.Errorf("wait requires a template path"))
	}
	template := fs.Arg(0)
	start := time.Now()

	if *gone {
		if !session.WaitForImageGone(template, vision.Options{}, *timeout, *interval) {
			fmt.Println("timeout")
			os.Exit(1)
		}
		fmt.Printf("gone after %s\n", time.Since(start).Round(time.Millisecond))
		return
	}

	var (
		p  screenhand.Point
		ok bool
	)
	if *stability > 0 {
		p, ok = session.WaitForStableImage(template, vision.Options{}, *stability, *timeout, *interval)
	} else {
		p, ok = session.WaitForImage(template, vision.Options{}, *timeout, *interval)
	}
	if !ok {
		fmt.Println("timeout")
		os.Exit(1)
	}
	fmt.Printf("found at %v after %s\n", p, time.Since(start).Round(time.Millisecond))
}

func cmdPixel(session *screenhand.Session, args []string) {
	fs := flag.NewFlagSet("pixel", flag.ExitOnError)
	x := fs.Int("x", 0, "screen x coordinate")
	y := fs.Int("y", 0, "screen y coordinate")
	fs.Parse(args)

	region := geometry.RectAt(geometry.Point{X: *x, Y: *y}, 1, 1)
	rect, err := session.Locate(screenhand.Query{Type: "coordinates", X: x, Y: y})
	if err != nil {
		fatal(err)
	}
	if rect == nil {
		fatal(fmt.Errorf("pixel query rejected"))
	}

	frame, err := session.CaptureRegion(&region)
	if err != nil {
		fatal(err)
	}
	c, ok := vision.ColorAt(frame.Image, frame.Image.Bounds().Min.X, frame.Image.Bounds().Min.Y)
	if !ok {
		fatal(fmt.Errorf("pixel outside screen"))
	}
	fmt.Printf("(%d, %d) = %s\n", *x, *y, vision.HexString(c))
}

func cmdHistory(session *screenhand.Session, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("n", 20, "number of records to show")
	fs.Parse(args)

	store := session.History()
	if store == nil {
		fatal(fmt.Errorf("history is disabled in the configuration"))
	}

	records, err := store.Recent(*limit)
	if err != nil {
		fatal(err)
	}
	for _, rec := range records {
		status := "miss"
		if rec.Found {
			status = "hit"
		}
		fmt.Printf("%s  %-10s %-30s %s %s\n",
			rec.CreatedAt.Format(time.RFC3339), rec.Kind, rec.Target, status, rec.Duration)
	}
}
