package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Guilhem-Bonnet/rmg/internal/buildinfo"
)

// newCLIApp crée le client CLI de l'API locale de rmg-server.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "rmg",
		Usage:   "Client for the local Rick and Morty gallery server",
		Version: buildinfo.Current().Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Value: "http://127.0.0.1:8080", EnvVars: []string{"RMG_SERVER_URL"}, Usage: "URL du serveur"},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "Timeout HTTP"},
		},
		Commands: []*cli.Command{
			getCmd("health", "Check the server", "/api/v1/health"),
			getCmd("version", "Show the server build", "/api/v1/version"),
			getCmd("gallery", "Show the current gallery view", "/api/v1/gallery"),
			nextCmd(),
			searchCmd(),
			clearCmd(),
			characterCmd(),
			episodeCmd(),
			settingsCmd(),
		},
	}
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func getCmd(name, usage, path string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return call(c, http.MethodGet, path, nil)
		},
	}
}

func nextCmd() *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "Load the next page of characters",
		Action: func(c *cli.Context) error {
			return call(c, http.MethodPost, "/api/v1/gallery/next", nil)
		},
	}
}

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search characters by name (an empty name clears the search)",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			name := strings.Join(c.Args().Slice(), " ")
			return call(c, http.MethodPost, "/api/v1/gallery/search", map[string]string{"name": name})
		},
	}
}

func clearCmd() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Clear the search and restore the browsing gallery",
		Action: func(c *cli.Context) error {
			return call(c, http.MethodDelete, "/api/v1/gallery/search", nil)
		},
	}
}

func characterCmd() *cli.Command {
	return &cli.Command{
		Name:      "character",
		Usage:     "Show a character of the gallery with its episodes",
		ArgsUsage: "INDEX",
		Action: func(c *cli.Context) error {
			index, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return cli.Exit("usage: rmg character INDEX", 2)
			}
			return call(c, http.MethodGet, "/api/v1/gallery/characters/"+strconv.Itoa(index), nil)
		},
	}
}

func episodeCmd() *cli.Command {
	return &cli.Command{
		Name:      "episode",
		Usage:     "Show an episode with the names of its characters",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := strconv.Atoi(c.Args().First())
			if err != nil || id <= 0 {
				return cli.Exit("usage: rmg episode ID", 2)
			}
			return call(c, http.MethodGet, "/api/v1/episodes/"+strconv.Itoa(id)+"/characters", nil)
		},
	}
}

func settingsCmd() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change runtime settings",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-images", Usage: "Concurrent image downloads"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("max-images") {
				return call(c, http.MethodPut, "/api/v1/settings", map[string]int{"maxConcurrentImages": c.Int("max-images")})
			}
			return call(c, http.MethodGet, "/api/v1/settings", nil)
		},
	}
}

// call envoie la requête et affiche la réponse JSON indentée. Un statut >= 400 sort en code 1.
func call(c *cli.Context, method, path string, body any) error {
	base, err := url.Parse(strings.TrimRight(c.String("server"), "/"))
	if err != nil || base.Host == "" {
		return cli.Exit(fmt.Sprintf("invalid server url %q", c.String("server")), 2)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(c.Context, method, base.String()+path, reader)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: c.Duration("timeout")}
	resp, err := client.Do(req)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	out := c.App.Writer
	var pretty any
	if err := json.Unmarshal(b, &pretty); err == nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(pretty)
	} else {
		_, _ = out.Write(b)
		_, _ = out.Write([]byte("\n"))
	}
	if resp.StatusCode >= 400 {
		return cli.Exit(fmt.Sprintf("http status %d", resp.StatusCode), 1)
	}
	return nil
}
