package cli

import (
	"github.com/spf13/cobra"

	"github.com/TFMV/springgraph/ingest"
	"github.com/TFMV/springgraph/server"
	"github.com/TFMV/springgraph/tui"
	"github.com/TFMV/springgraph/window"
)

func newViewCmd() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "view [graph-file]",
		Short: "Animate a graph in the terminal",
		Long:  `Animate a graph in the terminal. Drag nodes with the mouse, press f to fit, l to toggle labels and q to quit.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fd, err := prepare(cmd, &flags, args)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), fd, tui.Options{
				FPS:        cfg.Terminal.FPS,
				Glyph:      cfg.Glyph(),
				TimeStep:   cfg.Layout.TimeStep,
				Chase:      cfg.Viewport.Chase,
				HitRadius:  cfg.Viewport.HitRadius,
				FitSeconds: cfg.Viewport.FitSeconds,
				Logger:     loggerFromContext(cmd.Context()),
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newWindowCmd() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "window [graph-file]",
		Short: "Animate a graph in a desktop window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fd, err := prepare(cmd, &flags, args)
			if err != nil {
				return err
			}
			return window.Run(cmd.Context(), fd, window.Options{
				Width:      cfg.Window.Width,
				Height:     cfg.Window.Height,
				Title:      cfg.Window.Title,
				TimeStep:   cfg.Layout.TimeStep,
				Chase:      cfg.Viewport.Chase,
				HitRadius:  cfg.Viewport.HitRadius,
				FitSeconds: cfg.Viewport.FitSeconds,
				Logger:     loggerFromContext(cmd.Context()),
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		flags layoutFlags
		addr  string
		fps   int
	)

	cmd := &cobra.Command{
		Use:   "serve [graph-file]",
		Short: "Serve a live graph over HTTP",
		Long:  `Serve a live graph over HTTP. Open the address in a browser to watch and drag it; use the /api endpoints to change it.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fd, err := prepare(cmd, &flags, args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("fps") {
				cfg.Server.FPS = fps
			}
			palette, err := ingest.PaletteByName(cfg.Palette)
			if err != nil {
				return err
			}

			srv := server.New(fd, server.Options{
				Addr:       cfg.Server.Addr,
				FPS:        cfg.Server.FPS,
				Width:      cfg.Server.Width,
				Height:     cfg.Server.Height,
				TimeStep:   cfg.Layout.TimeStep,
				Chase:      cfg.Viewport.Chase,
				HitRadius:  cfg.Viewport.HitRadius,
				FitSeconds: cfg.Viewport.FitSeconds,
				Palette:    palette,
				Logger:     loggerFromContext(cmd.Context()),
			})
			return srv.Run(cmd.Context())
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&fps, "fps", 30, "frames per second")
	return cmd
}
