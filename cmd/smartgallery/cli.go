package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/smartgallery/internal/capture"
	"github.com/hpungsan/smartgallery/internal/editor"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/media"
	"github.com/hpungsan/smartgallery/internal/ops"
	"github.com/hpungsan/smartgallery/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// d may be nil when only help or version output is needed.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "smartgallery",
		Usage:   "Local photo and video library",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(d),
			getCmd(d),
			latestCmd(d),
			listCmd(d),
			searchCmd(d),
			updateCmd(d),
			tagCmd(d),
			deleteCmd(d),
			clearCmd(d),
			suggestCmd(),
			tagsCmd(d),
			statsCmd(d),
			catalogCmd(d),
			exportCmd(d),
			importCmd(d),
			captureCmd(d),
			filterCmd(),
			serveCmd(d),
			mcpCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// runApp runs app with each command's flags moved ahead of its positional
// arguments, so "save photo.jpg --title x" parses the same as
// "save --title x photo.jpg".
func runApp(app *cli.App, args []string) error {
	return app.Run(flagsFirst(app, args))
}

// flagsFirst reorders args[2:] for the command named by args[1]. Flag
// parsing stops at the first positional, so trailing flags would otherwise
// be read as arguments. Positionals follow a "--" terminator.
func flagsFirst(app *cli.App, args []string) []string {
	if len(args) < 3 {
		return args
	}
	cmd := app.Command(args[1])
	if cmd == nil {
		return args
	}
	takesValue := make(map[string]bool)
	for _, f := range cmd.Flags {
		_, isBool := f.(*cli.BoolFlag)
		for _, name := range f.Names() {
			takesValue[name] = !isBool
		}
	}

	var flags, positional []string
	rest := args[2:]
	for i := 0; i < len(rest); i++ {
		a := rest[i]
		if a == "--" {
			positional = append(positional, rest[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue[name] && i+1 < len(rest) {
			flags = append(flags, rest[i+1])
			i++
		}
	}

	out := make([]string, 0, len(args)+1)
	out = append(out, args[:2]...)
	out = append(out, flags...)
	if len(positional) > 0 {
		out = append(out, "--")
		out = append(out, positional...)
	}
	return out
}

// checkArgs rejects positionals beyond limit.
func checkArgs(c *cli.Context, limit int) error {
	if c.NArg() <= limit {
		return nil
	}
	extra := c.Args().Slice()[limit:]
	return errors.NewInvalidRequest(fmt.Sprintf("unexpected arguments: %s", strings.Join(extra, " ")))
}

// Flags hold parse state, so every command gets its own instance.
func tableFlag() cli.Flag {
	return &cli.BoolFlag{Name: "table", Usage: "Render a table instead of JSON"}
}

func kindFlag() cli.Flag {
	return &cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Filter by kind: image|video"}
}

// saveCmd creates the save command.
func saveCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save a photo or video (file path, --src, or piped bytes)",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "src", Usage: "Data URI or http(s) URL"},
			&cli.StringFlag{Name: "type", Usage: "MIME type of the bytes (sniffed when omitted)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title (defaults to the file name)"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
		},
		Action: func(c *cli.Context) error {
			if err := checkArgs(c, 1); err != nil {
				return outputError(err)
			}
			input := ops.SaveInput{
				Src:  c.String("src"),
				MIME: c.String("type"),
				Tags: parseTags(c.String("tags")),
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}

			switch {
			case c.NArg() > 0:
				path := c.Args().First()
				data, err := os.ReadFile(path)
				if err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("cannot read %s: %v", path, err)))
				}
				input.Data = data
				input.Name = filepath.Base(path)
			case input.Src != "":
			case stdinHasData():
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				input.Data = data
			default:
				return outputError(errors.NewInvalidRequest("a file, --src, or piped media is required"))
			}

			output, err := ops.Save(c.Context, d.store, d.blobs, d.cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// getCmd creates the get command. Several IDs fetch in one batch.
func getCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get one or more items by ID",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			if c.NArg() == 1 {
				output, err := ops.Get(c.Context, d.store, d.blobs, ops.GetInput{ID: c.Args().First()})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, output)
			}
			output, err := ops.GetMany(c.Context, d.store, ops.GetManyInput{IDs: c.Args().Slice()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// latestCmd creates the latest command.
func latestCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Show the most recently saved item and the last capture",
		Action: func(c *cli.Context) error {
			output, err := ops.Latest(c.Context, d.store)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved items, newest first",
		Flags: []cli.Flag{
			kindFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
			tableFlag(),
		},
		Action: func(c *cli.Context) error {
			kind, err := ops.ParseKind(c.String("kind"))
			if err != nil {
				return outputError(err)
			}
			output, err := ops.List(c.Context, d.store, ops.ListInput{
				Kind:   kind,
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("table") {
				return outputItemTable(c, output.Items, output.Pagination)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find items whose title or tags contain every word",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			kindFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
			tableFlag(),
		},
		Action: func(c *cli.Context) error {
			kind, err := ops.ParseKind(c.String("kind"))
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Search(c.Context, d.store, ops.SearchInput{
				Query:  strings.Join(c.Args().Slice(), " "),
				Kind:   kind,
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("table") {
				return outputItemTable(c, output.Items, output.Pagination)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Change an item's title, tags, or src",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "tags", Usage: "Replace tags (comma-separated, empty clears)"},
			&cli.StringFlag{Name: "src", Usage: "New data URI or URL"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			input := ops.UpdateInput{ID: c.Args().First()}
			if err := checkArgs(c, 1); err != nil {
				return outputError(err)
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("tags") {
				tags := parseTags(c.String("tags"))
				if tags == nil {
					tags = []string{}
				}
				input.Tags = &tags
			}
			if c.IsSet("src") {
				src := c.String("src")
				input.Src = &src
			}

			output, err := ops.Update(c.Context, d.store, d.blobs, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// filterFlags select items for bulk tag and delete.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Bulk: items matching every word"},
		&cli.StringFlag{Name: "tag", Usage: "Bulk: items carrying this tag"},
		kindFlag(),
	}
}

// libraryFilter builds a bulk filter from the flags that were set.
func libraryFilter(c *cli.Context) (ops.LibraryFilter, error) {
	var f ops.LibraryFilter
	if c.IsSet("query") {
		q := c.String("query")
		f.Query = &q
	}
	if c.IsSet("tag") {
		tag := c.String("tag")
		f.Tag = &tag
	}
	if c.IsSet("kind") {
		kind, err := ops.ParseKind(c.String("kind"))
		if err != nil {
			return f, err
		}
		f.Kind = &kind
	}
	return f, nil
}

// tagCmd creates the tag command.
func tagCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Add or remove tags on one item, or in bulk with --query/--tag/--kind",
		ArgsUsage: "[id]",
		Flags: append(filterFlags(),
			&cli.StringFlag{Name: "add", Aliases: []string{"a"}, Usage: "Comma-separated tags to add"},
			&cli.StringFlag{Name: "remove", Aliases: []string{"r"}, Usage: "Comma-separated tags to remove"},
		),
		Action: func(c *cli.Context) error {
			if err := checkArgs(c, 1); err != nil {
				return outputError(err)
			}
			add := parseTags(c.String("add"))
			remove := parseTags(c.String("remove"))

			if c.NArg() > 0 {
				output, err := ops.Tag(c.Context, d.store, ops.TagInput{
					ID:     c.Args().First(),
					Add:    add,
					Remove: remove,
				})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, output)
			}

			filter, err := libraryFilter(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.BulkTag(c.Context, d.store, ops.BulkTagInput{Filter: filter, Add: add, Remove: remove})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an item by ID, or in bulk with --query/--tag/--kind",
		ArgsUsage: "[id]",
		Flags:     filterFlags(),
		Action: func(c *cli.Context) error {
			if err := checkArgs(c, 1); err != nil {
				return outputError(err)
			}
			if c.NArg() > 0 {
				output, err := ops.Delete(c.Context, d.store, d.blobs, ops.DeleteInput{ID: c.Args().First()})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, output)
			}

			filter, err := libraryFilter(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.BulkDelete(c.Context, d.store, d.blobs, ops.BulkDeleteInput{Filter: filter})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove every item from the library",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm removal"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("clear removes every item; pass --yes to confirm"))
			}
			output, err := ops.Clear(c.Context, d.store, d.blobs)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// suggestCmd creates the suggest command.
func suggestCmd() *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Suggest tags from the built-in vocabulary",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Number of suggestions"},
			&cli.Uint64Flag{Name: "seed", Usage: "Fix the sample for repeatable output"},
			&cli.StringFlag{Name: "exclude", Usage: "Comma-separated tags already applied"},
			&cli.BoolFlag{Name: "quick", Usage: "Return the quick-pick tags"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SuggestTagsInput{
				Count:   c.Int("count"),
				Exclude: parseTags(c.String("exclude")),
				Quick:   c.Bool("quick"),
			}
			if c.IsSet("seed") {
				seed := c.Uint64("seed")
				input.Seed = &seed
			}
			output, err := ops.SuggestTags(input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// tagsCmd creates the tags command.
func tagsCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Show tag usage counts",
		Flags: []cli.Flag{tableFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.TagStats(c.Context, d.store)
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("table") {
				return outputJSON(c.App.Writer, output)
			}
			rows := make([][]string, 0, len(output.Tags))
			for _, tc := range output.Tags {
				rows = append(rows, []string{tc.Label, fmt.Sprint(tc.Count)})
			}
			fmt.Fprintln(c.App.Writer, renderTable([]string{"Tag", "Items"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show item counts and storage usage",
		Flags: []cli.Flag{tableFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, d.store, d.blobs)
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("table") {
				return outputJSON(c.App.Writer, output)
			}
			rows := [][]string{
				{"Items", fmt.Sprint(output.Items)},
				{"Photos", fmt.Sprint(output.Photos)},
				{"Videos", fmt.Sprint(output.Videos)},
				{"Dangling", fmt.Sprint(output.Dangling)},
				{"Used", output.Used},
				{"Quota", output.Quota},
				{"Percent used", fmt.Sprintf("%.1f%%", output.PercentUsed)},
			}
			fmt.Fprintln(c.App.Writer, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

// catalogCmd creates the catalog command. It prints Markdown, not JSON.
func catalogCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Print the library as a Markdown catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Only items matching this search"},
			&cli.BoolFlag{Name: "images", Usage: "Embed inline photos"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Catalog(c.Context, d.store, ops.CatalogInput{
				Query:  c.String("query"),
				Images: c.Bool("images"),
			})
			if err != nil {
				return outputError(err)
			}
			fmt.Fprint(c.App.Writer, output.Markdown)
			return nil
		},
	}
}

// exportCmd creates the export command.
func exportCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the library to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output file path"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Only items matching this search"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, d.store, d.cfg, ops.ExportInput{
				Path:  c.String("path"),
				Query: c.String("query"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import items from a JSONL export",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("path is required"))
			}
			if err := checkArgs(c, 1); err != nil {
				return outputError(err)
			}
			output, err := ops.Import(c.Context, d.store, d.cfg, ops.ImportInput{
				Path: c.Args().First(),
				Mode: ops.ImportMode(strings.ToLower(strings.TrimSpace(c.String("mode")))),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// captureCmd creates the capture command. The image file stands in for the camera.
func captureCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Take a photo from an image file acting as the camera",
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "facing", Aliases: []string{"f"}, Usage: "Camera: user|environment"},
			&cli.StringFlag{Name: "effect", Aliases: []string{"e"}, Value: "none", Usage: "Effect: none|grayscale|blur"},
			&cli.BoolFlag{Name: "save", Aliases: []string{"s"}, Usage: "Also save the photo to the library"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title when saving"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags when saving"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("image path is required"))
			}
			if err := checkArgs(c, 1); err != nil {
				return outputError(err)
			}
			facingArg := c.String("facing")
			if facingArg == "" {
				facingArg = d.cfg.DefaultFacing
			}
			facing, ok := capture.ParseFacing(facingArg)
			if !ok {
				return outputError(errors.NewInvalidRequest(`facing must be "user" or "environment"`))
			}
			effect, ok := capture.ParseEffect(c.String("effect"))
			if !ok {
				return outputError(errors.NewInvalidRequest("effect must be one of: none, grayscale, blur"))
			}

			input := ops.CaptureInput{
				Device: &capture.ImageDevice{Path: c.Args().First(), Facing: facing},
				Facing: facing,
				Effect: effect,
				Save:   c.Bool("save"),
				Tags:   parseTags(c.String("tags")),
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}

			output, err := ops.Capture(c.Context, d.store, d.blobs, d.cfg, d.logger.Named("capture"), input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// filterCmd creates the filter command: a prompt plans edits, flags preview them.
func filterCmd() *cli.Command {
	def := editor.DefaultEdits()
	return &cli.Command{
		Name:  "filter",
		Usage: "Preview editor settings or plan them from a prompt",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: `Natural-language edit, e.g. "retro and square"`},
			&cli.StringFlag{Name: "lighting", Value: string(def.Lighting), Usage: "none|retro|cinematic|cool"},
			&cli.Float64Flag{Name: "intensity", Value: def.Intensity, Usage: "Lighting strength 0-100"},
			&cli.Float64Flag{Name: "zoom", Value: def.Zoom, Usage: "Zoom factor, at least 1"},
			&cli.Float64Flag{Name: "offset-x", Value: def.OffsetX, Usage: "Horizontal pan in percent"},
			&cli.Float64Flag{Name: "offset-y", Value: def.OffsetY, Usage: "Vertical pan in percent"},
			&cli.StringFlag{Name: "aspect", Value: string(def.Aspect), Usage: "Frame: 16:9|1:1|9:16|4:3"},
			&cli.Float64Flag{Name: "playback-rate", Value: def.PlaybackRate, Usage: "Video speed"},
			&cli.BoolFlag{Name: "clamp", Usage: "Force values into range instead of rejecting them"},
		},
		Action: func(c *cli.Context) error {
			edits := editor.Edits{
				Lighting:     editor.Lighting(strings.ToLower(c.String("lighting"))),
				Intensity:    c.Float64("intensity"),
				Zoom:         c.Float64("zoom"),
				OffsetX:      c.Float64("offset-x"),
				OffsetY:      c.Float64("offset-y"),
				Aspect:       editor.Aspect(c.String("aspect")),
				PlaybackRate: c.Float64("playback-rate"),
			}

			if prompt := c.String("prompt"); prompt != "" {
				output, err := ops.Plan(ops.PlanInput{Prompt: prompt, Edits: &edits})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, output)
			}

			output, err := ops.Preview(ops.PreviewInput{Edits: edits, Clamp: c.Bool("clamp")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the gallery web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to listen on"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			logger := d.logger.Named("web")
			srv, err := web.NewServer(web.Deps{
				Store:  d.store,
				Blobs:  d.blobs,
				Config: d.cfg,
				Logger: logger,
			}, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			fmt.Fprintf(os.Stderr, "smartgallery %s serving at http://%s\n", Version, srv.Addr)
			if err := web.Run(srv, logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command, which starts the stdio server explicitly.
func mcpCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(_ *cli.Context) error {
			if err := runMCP(d); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// outputItemTable renders items with a paging footer.
func outputItemTable(c *cli.Context, items []media.LibraryItem, p ops.Pagination) error {
	w := c.App.Writer
	if len(items) == 0 {
		fmt.Fprintln(w, "No items.")
		return nil
	}
	fmt.Fprintln(w, renderTable(itemHeaders, itemRows(items), nil))
	footer := fmt.Sprintf("Showing %d-%d of %d", p.Offset+1, p.Offset+len(items), p.Total)
	if p.HasMore {
		footer += fmt.Sprintf(" (next: --offset %d)", p.Offset+len(items))
	}
	fmt.Fprintln(w, footer)
	return nil
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var gErr *errors.GalleryError
	if stderrors.As(err, &gErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
