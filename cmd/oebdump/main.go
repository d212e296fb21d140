package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"oebcore/bookmodel"
	"oebcore/config"
	"oebcore/opf"
	"oebcore/pluginregistry"
)

// registry is the process-wide plugin table (§4.9 "registration happens
// once at process start"). oebdump only ever deals with ePub archives,
// so the ePub plugin is the sole registration.
var registry = func() *pluginregistry.Registry {
	r := pluginregistry.NewRegistry()
	r.Register(opf.NewPlugin())
	return r
}()

func main() {
	app := &cli.Command{
		Name:      "oebdump",
		Usage:     "dump metadata, paragraph text and the contents tree of an ebook file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cache", Aliases: []string{"c"}, Usage: "cache `DIR` for the text model's block files (default: a temp directory)"},
			&cli.StringFlag{Name: "loglevel", Aliases: []string{"l"}, Value: "normal", Usage: "log `LEVEL`: debug, normal, or none"},
			&cli.BoolFlag{Name: "text", Usage: "also print every paragraph's decoded text"},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "oebdump: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("missing FILE argument")
	}

	log := config.NewLogger(cmd.String("loglevel"))
	defer log.Sync() //nolint:errcheck

	cacheDir := cmd.String("cache")
	if cacheDir == "" {
		dir, err := os.MkdirTemp("", "oebdump-")
		if err != nil {
			return fmt.Errorf("unable to create cache directory: %w", err)
		}
		defer os.RemoveAll(dir)
		cacheDir = dir
	}

	book := bookmodel.NewBook(path, true)

	tag, ok := sniffTag(path)
	if !ok {
		return fmt.Errorf("unrecognized file format: %s", path)
	}
	plugin := registry.Lookup(tag)
	if plugin == nil {
		return fmt.Errorf("no plugin registered for %q", tag)
	}

	if !plugin.ReadMetainfo(book) {
		log.Warn("unable to read metadata, continuing with defaults", zap.String("file", path))
	}
	plugin.ReadUIDs(book)
	plugin.ReadLanguageAndEncoding(book)

	bm := bookmodel.New(book, cacheDir, 0, log)
	modelOK := plugin.ReadModel(bm)
	if err := bm.Flush(); err != nil {
		return fmt.Errorf("unable to flush text model: %w", err)
	}
	if !modelOK {
		return fmt.Errorf("unable to read book model from %s", path)
	}

	printSummary(book, bm)
	if cmd.Bool("text") {
		printParagraphs(bm)
	}
	return nil
}

// sniffTag peeks at path's leading bytes to classify its container
// format (§6, §4.9 "Lookup by file-type").
func sniffTag(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	head := make([]byte, 261)
	n, _ := f.Read(head)
	return pluginregistry.SniffTag(head[:n])
}

func printSummary(book *bookmodel.Book, bm *bookmodel.BookModel) {
	fmt.Printf("Title:    %s\n", book.Title)
	for _, a := range book.Authors {
		fmt.Printf("Author:   %s\n", a.Name)
	}
	if book.Language != "" {
		fmt.Printf("Language: %s\n", book.Language)
	}
	if book.SeriesTitle != "" {
		fmt.Printf("Series:   %s #%s\n", book.SeriesTitle, book.SeriesIndex)
	}
	for _, u := range book.UIDs {
		fmt.Printf("UID:      %s:%s\n", u.Type, u.ID)
	}
	fmt.Printf("Paragraphs: %d\n", bm.Main().ParagraphsNumber())
	fmt.Printf("Images:     %d\n", len(bm.ImageNames()))

	fmt.Println("Contents:")
	printContentsNode(bm.Contents().Root(), 0)
}

func printContentsNode(node *bookmodel.ContentsNode, depth int) {
	for _, child := range node.Children {
		fmt.Printf("%*s- %s\n", depth*2, "", child.Text)
		printContentsNode(child, depth+1)
	}
}

func printParagraphs(bm *bookmodel.BookModel) {
	model := bm.Main()
	for i := 0; i < model.ParagraphsNumber(); i++ {
		entries, err := model.DecodeParagraph(i)
		if err != nil {
			fmt.Printf("paragraph %d: decode error: %v\n", i, err)
			continue
		}
		var text string
		for _, e := range entries {
			text += e.Text
		}
		if text != "" {
			fmt.Printf("%4d: %s\n", i, text)
		}
	}
}
