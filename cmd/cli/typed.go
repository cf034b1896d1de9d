// cmd/cli/typed.go
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/and161185/gk-share/internal/convert"
	"github.com/and161185/gk-share/internal/form"
	"github.com/and161185/gk-share/internal/model"
	"github.com/and161185/gk-share/internal/ui"
)

// ------- helpers -------

// loadFiles fetches the session user's files into the store.
func (a *app) loadFiles(ctx context.Context) (string, []model.File, error) {
	if err := a.guard(ctx); err != nil {
		return "", nil, err
	}
	username, err := a.auth.RequireUsername(ctx)
	if err != nil {
		return "", nil, err
	}
	files, err := a.files.FetchFiles(ctx, username)
	return username, files, err
}

// showUploadPage renders the upload page after a fetch. A failed fetch is
// still rendered with its error.
func (a *app) showUploadPage(ctx context.Context) error {
	username, _, err := a.loadFiles(ctx)
	if username == "" && err != nil {
		return err
	}
	if rerr := ui.RenderUpload(a.out, ui.UploadView{
		Username: username,
		Files:    a.store.Snapshot().Files,
	}); rerr != nil {
		return rerr
	}
	return err
}

// ------- commands -------

// cmdFiles lists the user's files in display order.
func cmdFiles(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("files")
	asJSON := fs.Bool("json", false, "print as JSON")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if !*asJSON {
		return a.showUploadPage(ctx)
	}
	_, files, err := a.loadFiles(ctx)
	if err != nil {
		return err
	}
	rows := make([]convert.WireFile, 0, len(files))
	for _, f := range files {
		rows = append(rows, convert.ToWireFile(f))
	}
	printJSON(a.out, rows)
	return nil
}

// cmdUpload validates the upload form and sends one media file.
func cmdUpload(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("upload")
	path := fs.String("file", "", "image or video file")
	tags := fs.String("tags", "", "comma-separated tags")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if err := a.guard(ctx); err != nil {
		return err
	}

	uf := form.UploadForm{FilePath: *path, Tags: *tags}
	if err := uf.Validate(); err != nil {
		if fe, ok := err.(form.Errors); ok {
			for _, e := range fe {
				fmt.Fprintf(a.out, "  %s: %s\n", e.Field, e.Message)
			}
		}
		return err
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	created, err := a.files.UploadFile(ctx, model.UploadRequest{
		FileName: filepath.Base(*path),
		Content:  f,
		Tags:     *tags,
	})
	if err != nil {
		return err
	}
	return ui.RenderFileCard(a.out, created)
}

// cmdShare generates a shareable link, optionally drawn as a QR code.
func cmdShare(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("share")
	id := fs.String("id", "", "file id")
	qr := fs.Bool("qr", false, "also print the link as a QR code")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usagef("share: need -id")
	}
	if err := a.guard(ctx); err != nil {
		return err
	}

	link, err := a.files.GenerateShareableLink(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, link)
	if *qr && link != "" {
		return ui.RenderQR(a.out, link)
	}
	return nil
}

// cmdStats prints the current view count of a file.
func cmdStats(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("stats")
	id := fs.String("id", "", "file id")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usagef("stats: need -id")
	}
	if err := a.guard(ctx); err != nil {
		return err
	}

	n, err := a.files.ViewStatistics(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Views: %d\n", n)
	return nil
}

// cmdReorder moves one file onto another's position, like a drag that
// ended over it. The new order is kept locally.
func cmdReorder(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("reorder")
	active := fs.String("active", "", "dragged file id")
	over := fs.String("over", "", "file id it was dropped on")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *active == "" || *over == "" {
		return usagef("reorder: need -active and -over")
	}

	username, _, err := a.loadFiles(ctx)
	if err != nil {
		return err
	}
	moved, err := a.files.MoveFile(ctx, username, *active, *over)
	if err != nil {
		return err
	}
	if !moved {
		fmt.Fprintln(a.errOut, "order unchanged")
	}
	return ui.RenderUpload(a.out, ui.UploadView{Username: username, Files: a.store.Snapshot().Files})
}
