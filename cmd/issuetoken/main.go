// Command issuetoken mints a bearer token for local testing against the
// booking and check-in endpoints.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/eventhive-services/common/authz"
	"github.com/eventhive-services/common/config"
	"github.com/eventhive-services/common/jwt"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "issuetoken:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		userID int64
		email  string
		role   string
	)

	flagSet := pflag.NewFlagSet("issuetoken", pflag.ContinueOnError)
	flagSet.Int64Var(&userID, "user", 0, "user id carried by the token (required)")
	flagSet.StringVar(&email, "email", "", "email claim")
	flagSet.StringVar(&role, "role", string(authz.RoleAttendee), "admin, organizer or attendee")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if userID <= 0 {
		return fmt.Errorf("--user must be a positive id")
	}
	parsed, ok := authz.ParseRole(role)
	if !ok {
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	jwt.SetSecret(cfg.JWTSecret)

	token, err := jwt.GenerateToken(userID, email, string(parsed))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
