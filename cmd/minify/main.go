package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"github.com/jessevdk/go-flags"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

type Options struct {
	Dir string `short:"d" long:"dir" description:"Assets directory" default:"assets"`
}

type PageData struct {
	CSS string
	JS  string
	SVG string
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	minified := func(name, mediaType string) string {
		raw, err := os.ReadFile(filepath.Join(opts.Dir, name))
		if err != nil {
			log.Fatalf("error read %s: %v", name, err)
		}
		out, err := m.String(mediaType, string(raw))
		if err != nil {
			log.Fatalf("error minify %s: %v", name, err)
		}
		return out
	}

	data := PageData{
		CSS: minified("style.css", "text/css"),
		JS:  minified("script.js", "text/javascript"),
		SVG: minified("favicon.svg", "image/svg+xml"),
	}

	htmlRaw, err := os.ReadFile(filepath.Join(opts.Dir, "index.html.tpl"))
	if err != nil {
		log.Fatal("error read HTML:", err)
	}

	tmpl, err := template.New("index").Parse(string(htmlRaw))
	if err != nil {
		log.Fatal("error read template:", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Fatal("error parse template:", err)
	}

	finalHTML, err := m.String("text/html", buf.String())
	if err != nil {
		log.Fatal("error minify HTML:", err)
	}

	if err := os.WriteFile(filepath.Join(opts.Dir, "index.html"), []byte(finalHTML), 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Println("minify done")
}
