// Package main is the dermascan command.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagDev         = "dev"
	flagProvider    = "provider"
	flagRoboflowKey = "roboflow-key"
	flagModelID     = "roboflow-model"
	flagGeminiKey   = "gemini-key"
	flagLocalURL    = "local-url"
	flagLocalModel  = "local-model"
	flagOut         = "out"
	flagAnnotate    = "annotate"
	flagFormat      = "format"
	flagZoom        = "zoom"
	flagJSON        = "json"
	flagPath        = "path"
	flagForce       = "force"
)

var app = &cli.App{
	Name:            "dermascan",
	Usage:           "detect skin conditions in photos and annotate the findings",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.StringFlag{
			Name:  flagLogLevel,
			Usage: "override the configured log level",
		},
		&cli.BoolFlag{
			Name:  flagDev,
			Usage: "human-readable development logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "serve",
			Usage:  "run the HTTP API",
			Action: ServeAction,
		},
		{
			Name:      "analyze",
			Usage:     "analyze images from files, directories or URLs",
			ArgsUsage: "<source> [source...]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  flagProvider,
					Usage: "roboflow, gemini, ollama or llamacpp (default from config)",
				},
				&cli.StringFlag{
					Name:    flagRoboflowKey,
					EnvVars: []string{"ROBOFLOW_API_KEY"},
					Usage:   "Roboflow API key",
				},
				&cli.StringFlag{
					Name:  flagModelID,
					Usage: "Roboflow model id, e.g. skin-disease/2",
				},
				&cli.StringFlag{
					Name:    flagGeminiKey,
					EnvVars: []string{"GEMINI_API_KEY"},
					Usage:   "Gemini API key",
				},
				&cli.StringFlag{
					Name:  flagLocalURL,
					Usage: "self-hosted ollama or llamacpp server URL",
				},
				&cli.StringFlag{
					Name:  flagLocalModel,
					Usage: "self-hosted vision model",
				},
				&cli.StringFlag{
					Name:  flagOut,
					Value: "out",
					Usage: "output `DIR` for results",
				},
				&cli.BoolFlag{
					Name:  flagAnnotate,
					Usage: "write an annotated image when boxes are detected",
				},
				&cli.StringFlag{
					Name:  flagFormat,
					Usage: "annotated image format: jpg|png|webp (default from config)",
				},
				&cli.Float64Flag{
					Name:  flagZoom,
					Value: 1,
					Usage: "annotation zoom, 0.5 to 2",
				},
				&cli.BoolFlag{
					Name:  flagJSON,
					Usage: "print detections as JSON",
				},
			},
			Action: AnalyzeAction,
		},
		{
			Name:      "match",
			Usage:     "look up labels in the condition library",
			ArgsUsage: "<label> [label...]",
			Action:    MatchAction,
		},
		{
			Name:   "library",
			Usage:  "list the condition library",
			Action: LibraryAction,
		},
		{
			Name:            "config",
			Usage:           "manage the configuration file",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:  "init",
					Usage: "write the default configuration",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  flagPath,
							Usage: "destination `FILE` (default ~/.config/dermascan/config.json)",
						},
						&cli.BoolFlag{
							Name:  flagForce,
							Usage: "overwrite an existing file",
						},
					},
					Action: ConfigInitAction,
				},
			},
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
