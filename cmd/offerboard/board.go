package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"offer-board/internal/board"
	"offer-board/internal/client"
	"offer-board/internal/config"
	"offer-board/internal/logging"
)

var (
	boardPort   string
	boardAPIURL string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Start the offer board page server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if boardPort != "" {
			cfg.Board.Port = boardPort
		}
		if boardAPIURL != "" {
			cfg.Board.APIURL = boardAPIURL
		}
		return runBoard(cfg)
	},
}

func init() {
	boardCmd.Flags().StringVar(&boardPort, "port", "", "listen port (overrides BOARD_PORT)")
	boardCmd.Flags().StringVar(&boardAPIURL, "api-url", "", "offers API base URL (overrides API_URL)")
}

func runBoard(cfg *config.Config) error {
	logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	renderer, err := board.NewRenderer()
	if err != nil {
		return err
	}

	api := client.New(cfg.Board.APIURL, nil)
	srv := &http.Server{
		Addr:              ":" + cfg.Board.Port,
		Handler:           board.NewServer(api, renderer, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting offer board", "port", cfg.Board.Port, "api_url", api.BaseURL())
	return serve(srv, logger)
}
