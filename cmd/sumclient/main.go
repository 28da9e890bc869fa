package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/danmuck/sumctl/internal/config"
	"github.com/danmuck/sumctl/internal/exchange"
	"github.com/danmuck/sumctl/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const usage = `Use: sumclient <server address> <N integers space separated>
Example: sumclient localhost 1 2 3 4 5 6 7 8 9
`

func main() {
	_ = godotenv.Load()
	logging.ConfigureRuntime()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	if len(args) < 2 {
		fmt.Fprint(stdout, usage)
		return 1
	}
	values, err := parseValues(args[1:])
	if err != nil {
		fmt.Fprintf(stdout, "%v\n%s", err, usage)
		return 1
	}

	cfg := defaultClientConfig()
	if path, ok := os.LookupEnv(config.EnvClientConfig); ok {
		cfg, err = loadClientConfig(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("failed to load client config")
			return 1
		}
	}

	addr := net.JoinHostPort(args[0], strconv.Itoa(cfg.Port))
	client, err := exchange.Dial(ctx, addr, cfg.Exchange)
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("failed to connect")
		return 1
	}

	res, err := client.Exchange(ctx, values)
	if err != nil {
		log.Debug().Err(err).Str("addr", addr).Msg("exchange failed")
		fmt.Fprintf(stdout, "Error: %d\n", exchange.Code(err))
		return 1
	}

	fmt.Fprintf(stdout, "Result: %d\n", res.Sum)
	if cfg.Exchange.PrefixSums {
		parts := make([]string, len(res.PrefixSums))
		for i, v := range res.PrefixSums {
			parts[i] = strconv.FormatUint(uint64(v), 10)
		}
		fmt.Fprintf(stdout, "Prefix: %s\n", strings.Join(parts, " "))
	}
	return 0
}

func parseValues(args []string) ([]uint32, error) {
	out := make([]uint32, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(strings.TrimSpace(a), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: want 0..4294967295", a)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
