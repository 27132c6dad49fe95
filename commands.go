package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sixdegrees-service/internal/db"
	igrpc "sixdegrees-service/internal/grpc"
	"sixdegrees-service/internal/jobs"
	"sixdegrees-service/internal/rabbitmq"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		database, err := db.Connect(cmd.Context(), cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.Migrate(cmd.Context(), database); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire overdue connection requests once and refund their creators",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		database, err := db.Connect(cmd.Context(), cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer database.Close()

		publisher := rabbitmq.NewPublisherOrNoop(cfg.AMQPURL, cfg.EventsExchange)
		defer publisher.Close()

		requestService := services.NewRequestService(
			repositories.NewRequestRepository(database, publisher),
			repositories.NewChainRepository(database, publisher),
			cfg.Rewards,
		)
		n, err := jobs.NewExpiryJob(requestService).RunOnce(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d request(s)\n", n)
		return err
	},
}

var (
	inspectAddr    string
	inspectTimeout time.Duration
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Query a running instance over the internal gRPC API",
}

var inspectBalanceCmd = &cobra.Command{
	Use:   "balance <user_id>",
	Short: "Print a user's credit balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || userID <= 0 {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		client, err := igrpc.NewChainClient(inspectTarget())
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := contextWithTimeout(cmd)
		defer cancel()
		credits, err := client.GetCreditBalance(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %d: %d credits\n", userID, credits)
		return nil
	},
}

var inspectStatusCmd = &cobra.Command{
	Use:   "status <share_id>",
	Short: "Print the status of a connection request by share id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := igrpc.NewChainClient(inspectTarget())
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := contextWithTimeout(cmd)
		defer cancel()
		status, err := client.GetRequestStatus(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], status)
		return nil
	},
}

func init() {
	inspectCmd.PersistentFlags().StringVar(&inspectAddr, "addr", "", "gRPC address (defaults to grpc_addr from config)")
	inspectCmd.PersistentFlags().DurationVar(&inspectTimeout, "timeout", 5*time.Second, "RPC timeout")
	inspectCmd.AddCommand(inspectBalanceCmd, inspectStatusCmd)
}

func inspectTarget() string {
	if inspectAddr != "" {
		return inspectAddr
	}
	if len(cfg.GRPCAddr) > 0 && cfg.GRPCAddr[0] == ':' {
		return "localhost" + cfg.GRPCAddr
	}
	return cfg.GRPCAddr
}
