package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/astra/internal/server"
	"github.com/matzehuels/astra/pkg/cache"
	"github.com/matzehuels/astra/pkg/observability"
	"github.com/matzehuels/astra/pkg/pipeline"
	"github.com/matzehuels/astra/pkg/session"
)

// redisKeyPrefix namespaces graph and layout keys in a shared Redis.
const redisKeyPrefix = appName + ":"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string // listen address; overrides [server] addr
	redis     string // Redis address or URL; overrides [server] redis
	maxUpload int64  // maximum upload size in bytes
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph API over HTTP",
		Long: `Serve the graph API over HTTP.

Layouts and graphs are cached in Redis when --redis (or [server] redis in the
config file) is set, and in memory otherwise. Sessions live in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.cfg()

			addr := opts.addr
			if addr == "" {
				addr = cfg.Addr()
			}
			redisAddr := opts.redis
			if redisAddr == "" {
				redisAddr = cfg.Server.Redis
			}

			var (
				backend cache.Cache
				keyer   cache.Keyer
			)
			if redisAddr != "" {
				rc, err := cache.NewRedisCache(ctx, redisAddr)
				if err != nil {
					return err
				}
				backend = rc
				keyer = cache.NewScopedKeyer(nil, redisKeyPrefix)
				c.Logger.Info("using redis cache", "addr", redisAddr, "prefix", redisKeyPrefix)
			} else {
				backend = cache.NewMemoryCache()
				c.Logger.Info("using in-memory cache")
			}

			observability.UseLogHooks(c.Logger)
			defer observability.Reset()

			runner := pipeline.NewRunner(backend, keyer, session.NewMemoryStore(), c.Logger)
			defer runner.Close()

			defaults := pipeline.Options{}
			cfg.apply(&defaults)

			srv := server.New(server.Config{
				Runner:         runner,
				Palettes:       cfg.Registry(),
				Defaults:       defaults,
				Logger:         c.Logger,
				MaxUploadBytes: opts.maxUpload,
			})

			printSuccess("Listening")
			printKeyValue("Address", StyleLink.Render("http://"+displayAddr(addr)))
			if p := cfg.Path(); p != "" {
				printKeyValue("Config", p)
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default "+defaultAddr+")")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address or redis:// URL for the cache")
	cmd.Flags().Int64Var(&opts.maxUpload, "max-upload", server.DefaultMaxUploadBytes, "maximum upload size in bytes")

	return cmd
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
