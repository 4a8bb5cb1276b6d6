package main

import (
	"roidecode/adapters/api"
	"roidecode/internal/config"
	"roidecode/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown()
			if err := c.Connect(cmd.Context()); err != nil {
				return err
			}

			gin.SetMode(cfg.Server.GinMode)
			return api.NewServer(c.ResultsRepo, c.Logger).Start(":" + cfg.Server.Port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8080", "Listen port")
	return cmd
}
