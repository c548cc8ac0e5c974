// Command helper is an interactive admin console that drives the admin API of
// a running server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"launchkit/internal/access"
	"launchkit/internal/authprovider"
	"launchkit/internal/utils/logger"
)

const usage = `commands:
  list [search]                 list users
  create <name> <email> <role>  create a user
  ban <user-id> [reason...]     ban a user
  unban <user-id>               lift a ban
  role <user-id> <role>         change the system role
  q                             quit`

func main() {
	var log = logger.New("helper")

	_ = godotenv.Load()

	baseURL := flag.String("url", envOr("LAUNCHKIT_URL", "http://localhost:8080"), "server base URL")
	token := flag.String("token", os.Getenv("LAUNCHKIT_TOKEN"), "admin session token")
	flag.Parse()

	if *token == "" {
		_ = log.Error("❌ No session token", fmt.Errorf("pass -token or set LAUNCHKIT_TOKEN"))
		os.Exit(1)
	}

	client := authprovider.NewRemoteAdmin(*baseURL, *token)
	log.Info("🔑 Admin console for %s", *baseURL)
	fmt.Println(usage)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "q" {
			log.Info("👋 Exiting helper CLI")
			return
		}
		if err := run(client, fields[0], fields[1:], log); err != nil {
			_ = log.Error("❌ "+fields[0]+" failed", err)
		}
	}
}

func run(client authprovider.AdminAPI, cmd string, args []string, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "list":
		q := authprovider.ListUsersQuery{Limit: 50}
		if len(args) > 0 {
			q.Search = strings.Join(args, " ")
		}
		list, err := authprovider.Normalize(client.ListUsers(ctx, q)).Unwrap()
		if err != nil {
			return err
		}
		for _, u := range list.Users {
			banned := ""
			if u.Banned {
				banned = " (banned)"
			}
			fmt.Printf("%s  %-30s %-10s %s%s\n", u.ID, u.Email, u.Role, u.Name, banned)
		}
		log.Info("%d of %d users", len(list.Users), list.Total)
	case "create":
		if len(args) != 3 {
			return fmt.Errorf("usage: create <name> <email> <role>")
		}
		role, ok := access.ParseSystemRole(args[2])
		if !ok {
			return fmt.Errorf("unknown role %q", args[2])
		}
		user, err := authprovider.Normalize(client.CreateUser(ctx, authprovider.CreateUserRequest{
			Name:  args[0],
			Email: args[1],
			Role:  role,
		})).Unwrap()
		if err != nil {
			return err
		}
		log.Success("✅ Created %s (%s)", user.Email, user.ID)
	case "ban":
		if len(args) < 1 {
			return fmt.Errorf("usage: ban <user-id> [reason]")
		}
		user, err := authprovider.Normalize(client.BanUser(ctx, authprovider.BanUserRequest{
			UserID: args[0],
			Reason: strings.Join(args[1:], " "),
		})).Unwrap()
		if err != nil {
			return err
		}
		log.Success("✅ Banned %s", user.Email)
	case "unban":
		if len(args) != 1 {
			return fmt.Errorf("usage: unban <user-id>")
		}
		user, err := authprovider.Normalize(client.UnbanUser(ctx, args[0])).Unwrap()
		if err != nil {
			return err
		}
		log.Success("✅ Unbanned %s", user.Email)
	case "role":
		if len(args) != 2 {
			return fmt.Errorf("usage: role <user-id> <role>")
		}
		role, ok := access.ParseSystemRole(args[1])
		if !ok {
			return fmt.Errorf("unknown role %q", args[1])
		}
		user, err := authprovider.Normalize(client.SetRole(ctx, args[0], role)).Unwrap()
		if err != nil {
			return err
		}
		log.Success("✅ %s is now %s", user.Email, user.Role)
	default:
		log.Warn("⚠️ Unknown command %q\n%s", cmd, usage)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
