package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/taurusgroup/paillier/internal/params"
	"github.com/taurusgroup/paillier/pkg/pool"
)

var (
	logLevel string
	workers  int

	demoBits   int
	batchBits  int
	batchCount int
	keygenBits int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "paillier-example",
	Short: "Paillier homomorphic encryption examples",
	Long: `Generates Paillier keys, and shows how ciphertexts can be added together,
or multiplied by a constant, without being decrypted.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "workers searching for primes, 0 for one per CPU, -1 to stay on the main goroutine")

	demoCmd.Flags().IntVar(&demoBits, "bits", 512, "bit length of the modulus, at least 2048 outside of demos")
	batchCmd.Flags().IntVar(&batchBits, "bits", 128, "bit length of the modulus")
	batchCmd.Flags().IntVar(&batchCount, "count", 10, "number of random values to encrypt and decrypt")
	keygenCmd.Flags().IntVar(&keygenBits, "bits", params.BitsPaillier, "bit length of the modulus")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(keygenCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Add and multiply encrypted values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd, func(log zerolog.Logger, pl *pool.Pool) error {
			return Demo(cmd.OutOrStdout(), log, demoBits, pl)
		})
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Encrypt and decrypt random values concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd, func(log zerolog.Logger, pl *pool.Pool) error {
			return Batch(cmd.Context(), cmd.OutOrStdout(), log, batchBits, batchCount, pl)
		})
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a key pair and print the encoded public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd, func(log zerolog.Logger, pl *pool.Pool) error {
			return Keygen(cmd.OutOrStdout(), log, keygenBits, pl)
		})
	},
}

// withPool sets up the logger and the prime search pool shared by all commands.
func withPool(cmd *cobra.Command, run func(zerolog.Logger, *pool.Pool) error) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().
		Timestamp().
		Str("command", cmd.Name()).
		Logger()

	var pl *pool.Pool
	if workers >= 0 {
		pl = pool.NewPool(workers)
		defer pl.TearDown()
	}
	log.Debug().Int("workers", pl.Workers()).Msg("start")
	return run(log, pl)
}
