package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/canvas"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/config"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/gateway"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/labels"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/localstore"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/navigator"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/store"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canary",
	Short: "Annotate image batches with keypoints and bounding boxes",
	Long: strings.TrimSpace(`
Canary drives the annotation engine from the terminal: place keypoints and
bounding boxes on a batch's images, rename or delete them, undo and redo,
and follow a collaborator's live session.
    `),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (yaml)")
}

// app is the composition root: it builds the gateway, stores, registry,
// navigator and canvas from configuration and owns their lifetime. Nothing
// in the engine reaches for ambient globals.
type app struct {
	cfg      *config.Config
	gw       *gateway.Client
	cache    *localstore.Cache
	store    *store.Store
	registry *labels.Registry
	nav      *navigator.Navigator
	canvas   *canvas.Canvas
	renderer *textRenderer
}

func newApp(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	gw, err := gateway.NewClient(cfg.BackendURL, cfg.Token)
	if err != nil {
		return nil, err
	}

	cache, err := localstore.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	a := &app{
		cfg:      cfg,
		gw:       gw,
		cache:    cache,
		store:    store.NewStore(),
		registry: labels.NewRegistry(),
		nav:      navigator.New(gw),
		renderer: newTextRenderer(os.Stdout),
	}
	a.canvas = canvas.New(canvas.Deps{
		ProjectID: cfg.ProjectID,
		Gateway:   gw,
		Store:     a.store,
		Registry:  a.registry,
		Renderer:  a.renderer,
	})
	return a, nil
}

// loadLabels refreshes the label registry for the active project, replacing
// both kinds wholesale.
func (a *app) loadLabels(ctx context.Context) error {
	kpLabels, err := a.gw.ListKeypointLabels(ctx, a.cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load keypoint labels: %w", err)
	}
	bbLabels, err := a.gw.ListBoundingBoxLabels(ctx, a.cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load bounding box labels: %w", err)
	}
	a.registry.Replace(domain.KindKeypoint, kpLabels)
	a.registry.Replace(domain.KindBoundingBox, bbLabels)
	log.Printf("Labels loaded: %d keypoint, %d bounding box", len(kpLabels), len(bbLabels))
	return nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		log.Printf("failed to close cache: %v", err)
	}
}
