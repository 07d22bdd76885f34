package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"taskdeck/pkg/database"
	"taskdeck/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development backend",
	Long: `Serve the task and user resources together with an emulator of the
identity endpoints, backed by sqlite (default) or postgres.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var assertionCmd = &cobra.Command{
	Use:   "dev-assertion <email>",
	Short: "Print a federated id token accepted by the development backend",
	Long: `Print an id token signed with the development backend's secret. Set
identity.federated_token_command to "taskdeck dev-assertion you@example.com"
to try federated sign-in locally.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssertion,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	serveCmd.Flags().String("database", "", "sqlite path or postgres DSN (default from config)")
	assertionCmd.Flags().String("name", "", "Display name")
	assertionCmd.Flags().String("subject", "", "Federated subject id (default derived from the email)")
}

func serverConfig() server.Config {
	return server.Config{
		Addr: cfg.Server.Addr,
		Tokens: server.TokenConfig{
			Secret:     cfg.Server.TokenSecret,
			IDTokenTTL: cfg.Server.TokenTTL,
		},
		APIKey:      cfg.Server.APIKey,
		SignInRate:  rate.Limit(cfg.Server.SignInRate),
		SignInBurst: cfg.Server.SignInBurst,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	scfg := serverConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		scfg.Addr = addr
	}
	dsn := cfg.Server.Database
	if flag, _ := cmd.Flags().GetString("database"); flag != "" {
		dsn = flag
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.ConnectDB(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.EnsureSchema(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(db, scfg).Run(ctx)
}

func runAssertion(cmd *cobra.Command, args []string) error {
	email := args[0]
	name, _ := cmd.Flags().GetString("name")
	subject, _ := cmd.Flags().GetString("subject")
	if subject == "" {
		subject = "dev:" + email
	}

	tokens := server.NewTokenManager(serverConfig().Tokens)
	assertion, err := tokens.IssueAssertion(subject, email, name)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), assertion)
	return nil
}
