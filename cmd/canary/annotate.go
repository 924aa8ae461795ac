package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/canvas"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/geometry"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/localstore"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/session"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <batch-id>",
	Short: "Interactively annotate a batch's images",
	Long: strings.TrimSpace(`
Walks a batch image by image. Select a tool (kp, bb), click coordinates to
place annotations, confirm with a label name, and move through the batch
with next/prev. Pass a create or join token to mirror the work into a live
collaborative session. Type help inside the loop for the command list.
    `),
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().String("session-id", "", "Collaborative session to attach to")
	annotateCmd.Flags().String("create-token", "", "One-time token opening the session as owner")
	annotateCmd.Flags().String("join-token", "", "One-time token joining the session as member")
	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.loadLabels(ctx); err != nil {
		return err
	}

	batchID := args[0]
	createToken, _ := cmd.Flags().GetString("create-token")
	joinToken, _ := cmd.Flags().GetString("join-token")
	sessionID, _ := cmd.Flags().GetString("session-id")

	var sync *session.Synchronizer
	if createToken != "" || joinToken != "" {
		sync, err = attachSession(ctx, a, sessionID, createToken, joinToken)
		if err != nil {
			return err
		}
		defer sync.Close()
	}

	if err := showImage(ctx, a, sync, batchID, 1); err != nil {
		return err
	}
	if err := a.cache.SaveBatch(ctx, batchID, a.nav.Images(batchID)); err != nil {
		log.Printf("annotate: cache batch %s: %v", batchID, err)
	}

	return annotateLoop(ctx, a, sync, batchID, os.Stdin, os.Stdout)
}

// attachSession connects the live session socket. The session id comes from
// the flag when given, otherwise from the id persisted by a previous run.
func attachSession(ctx context.Context, a *app, sessionID, createToken, joinToken string) (*session.Synchronizer, error) {
	creds := localstore.NewCredentials(a.cache, createToken, joinToken)
	if sessionID == "" {
		sessionID = creds.SessionID()
	}
	if sessionID == "" {
		return nil, fmt.Errorf("no session id given and none persisted; pass --session-id")
	}

	sync := session.New(session.Config{
		BaseURL:     a.cfg.SessionURL,
		SessionID:   sessionID,
		AuthToken:   a.cfg.Token,
		Credentials: creds,
		OnRefresh: func(kind domain.Kind) {
			if err := a.canvas.Refresh(ctx); err != nil {
				log.Printf("annotate: refresh after %s snapshot: %v", kind, err)
			}
		},
		OnClose: func() {
			log.Printf("annotate: session connection closed")
		},
	})
	if err := sync.Connect(ctx); err != nil {
		return nil, err
	}
	a.gw.SetSessionID(sessionID)
	log.Printf("annotate: session %s attached as %s", sessionID, sync.Role())
	return sync, nil
}

// showImage makes the index-th image of the batch current: navigator first,
// then the canvas fetch-and-redraw, then the session image scope.
func showImage(ctx context.Context, a *app, sync *session.Synchronizer, batchID string, index int) error {
	img, total, err := a.nav.LoadImageURL(ctx, batchID, index)
	if err != nil {
		return err
	}
	if err := a.canvas.LoadImage(ctx, img.ImageID); err != nil {
		log.Printf("annotate: load annotations for %s: %v", img.ImageID, err)
	}
	if sync != nil {
		sync.SetImageID(img.ImageID)
	}
	fmt.Printf("-- image %d/%d  %s  %s\n", index, total, img.ImageID, img.ImageURL)
	return nil
}

func annotateLoop(ctx context.Context, a *app, sync *session.Synchronizer, batchID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			saveLocal(ctx, a)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch cmd, rest := fields[0], fields[1:]; cmd {
		case "kp":
			a.canvas.SelectTool(canvas.ToolKeypoint)
		case "bb":
			a.canvas.SelectTool(canvas.ToolBoundingBox)
		case "none":
			a.canvas.SelectTool(canvas.ToolNone)
		case "click":
			x, y, err := parsePoint(rest)
			if err != nil {
				fmt.Fprintf(out, "usage: click <x> <y>\n")
				continue
			}
			a.canvas.Click(x, y)
			promptLabel(ctx, a, scanner, out)
		case "edit":
			if len(rest) != 1 {
				fmt.Fprintf(out, "usage: edit <annotation-id>\n")
				continue
			}
			editAnnotation(ctx, a, scanner, out, rest[0])
		case "undo":
			if err := a.canvas.Undo(ctx); err != nil {
				fmt.Fprintf(out, "undo: %v\n", err)
			}
		case "redo":
			if err := a.canvas.Redo(ctx); err != nil {
				fmt.Fprintf(out, "redo: %v\n", err)
			}
		case "next":
			saveLocal(ctx, a)
			if idx := a.nav.Next(); idx > 0 {
				if err := showImage(ctx, a, sync, batchID, idx); err != nil {
					fmt.Fprintf(out, "next: %v\n", err)
				}
			}
		case "prev":
			saveLocal(ctx, a)
			if idx := a.nav.Prev(); idx > 0 {
				if err := showImage(ctx, a, sync, batchID, idx); err != nil {
					fmt.Fprintf(out, "prev: %v\n", err)
				}
			}
		case "goto":
			idx, err := parseIndex(rest)
			if err != nil {
				fmt.Fprintf(out, "usage: goto <n>\n")
				continue
			}
			saveLocal(ctx, a)
			if err := showImage(ctx, a, sync, batchID, idx); err != nil {
				fmt.Fprintf(out, "goto: %v\n", err)
			}
		case "refresh":
			if err := a.canvas.Refresh(ctx); err != nil {
				fmt.Fprintf(out, "refresh: %v\n", err)
			}
		case "show":
			printAnnotations(a, out)
		case "labels":
			fmt.Fprintf(out, "keypoint labels:     %s\n", strings.Join(a.registry.Names(domain.KindKeypoint), ", "))
			fmt.Fprintf(out, "bounding box labels: %s\n", strings.Join(a.registry.Names(domain.KindBoundingBox), ", "))
		case "save":
			saveLocal(ctx, a)
			fmt.Fprintln(out, "saved")
		case "help":
			fmt.Fprint(out, annotateHelp)
		case "quit", "q":
			saveLocal(ctx, a)
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q; type help\n", cmd)
		}
	}
}

const annotateHelp = `commands:
  kp | bb | none      select the keypoint, bounding box, or no tool
  click <x> <y>       click the canvas at image coordinates
  edit <id>           open the label prompt for an existing annotation
  undo | redo         step through the action history
  next | prev         move through the batch (wraps at the ends)
  goto <n>            jump to the n-th image (1-based)
  refresh             re-fetch the current image's annotations
  show                list the current image's annotations
  labels              list the known label names
  save                write the current image's annotations to the local cache
  quit                save and exit
`

// promptLabel drains the label request a click may have raised and runs the
// modal prompt: a label name confirms, an empty line or cancel dismisses,
// delete (edits only) removes the annotation. Unknown labels keep the
// prompt open, matching the pending state the engine holds.
func promptLabel(ctx context.Context, a *app, scanner *bufio.Scanner, out io.Writer) {
	var req canvas.LabelRequest
	select {
	case req = <-a.canvas.LabelRequests():
	default:
		return
	}

	names := strings.Join(a.registry.Names(req.Kind), ", ")
	for {
		switch req.Mode {
		case canvas.RequestEdit:
			fmt.Fprintf(out, "label for %s at (%.0f, %.0f), currently %q [%s], or cancel/delete: ",
				req.Kind, req.Position.X, req.Position.Y, req.CurrentLabel, names)
		default:
			fmt.Fprintf(out, "label for new %s at (%.0f, %.0f) [%s], or cancel: ",
				req.Kind, req.Position.X, req.Position.Y, names)
		}
		if !scanner.Scan() {
			a.canvas.CancelLabel()
			return
		}
		text := strings.TrimSpace(scanner.Text())

		switch {
		case text == "" || text == "cancel":
			a.canvas.CancelLabel()
			return
		case text == "delete" && req.Mode == canvas.RequestEdit:
			if err := a.canvas.DeletePending(ctx); err != nil {
				fmt.Fprintf(out, "delete: %v\n", err)
			}
			return
		default:
			if err := a.canvas.ConfirmLabel(ctx, text); err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			return
		}
	}
}

// editAnnotation reopens the label prompt for an annotation by id, standing
// in for clicking its visual on a real canvas.
func editAnnotation(ctx context.Context, a *app, scanner *bufio.Scanner, out io.Writer, id string) {
	handle, ok := a.canvas.HandleFor(id)
	if !ok {
		fmt.Fprintf(out, "no annotation %s on this image\n", id)
		return
	}

	imageKey := a.canvas.CurrentImage()
	var at geometry.Point
	if kp, found := a.store.FindKeypoint(imageKey, id); found {
		at = kp.Position
	} else if bb, found := a.store.FindBoundingBox(imageKey, id); found {
		at = geometry.Centroid(bb.Points[:])
	}

	a.canvas.ClickAnnotation(handle, at.X, at.Y)
	promptLabel(ctx, a, scanner, out)
}

func printAnnotations(a *app, out io.Writer) {
	imageKey := a.canvas.CurrentImage()
	col := a.store.Get(imageKey)
	for _, kp := range col.Keypoints {
		name, _ := a.registry.Name(domain.KindKeypoint, kp.LabelID)
		fmt.Fprintf(out, "keypoint      %s  %-12s (%.0f, %.0f)\n", kp.ID, name, kp.Position.X, kp.Position.Y)
	}
	for _, bb := range col.BoundingBoxes {
		name, _ := a.registry.Name(domain.KindBoundingBox, bb.LabelID)
		c := geometry.Centroid(bb.Points[:])
		fmt.Fprintf(out, "bounding box  %s  %-12s centered (%.0f, %.0f)\n", bb.ID, name, c.X, c.Y)
	}
	if len(col.Keypoints) == 0 && len(col.BoundingBoxes) == 0 {
		fmt.Fprintln(out, "no annotations")
	}
}

// saveLocal snapshots the current image's annotations into the offline
// cache. Failures are logged; the cache is a convenience, not the source of
// truth.
func saveLocal(ctx context.Context, a *app) {
	imageKey := a.canvas.CurrentImage()
	if imageKey == "" {
		return
	}
	if err := a.cache.SaveSnapshot(ctx, imageKey, a.store.Get(imageKey)); err != nil {
		log.Printf("annotate: cache snapshot for %s: %v", imageKey, err)
	}
}

func parsePoint(fields []string) (x, y float64, err error) {
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected two coordinates")
	}
	if x, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, err
	}
	if y, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseIndex(fields []string) (int, error) {
	if len(fields) != 1 {
		return 0, fmt.Errorf("expected one index")
	}
	return strconv.Atoi(fields[0])
}
