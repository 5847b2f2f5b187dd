// Command staff-token prints a signed staff JWT for the /admin routes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	appconfig "github.com/wolfman30/pawcare-booking/internal/config"
	httpmiddleware "github.com/wolfman30/pawcare-booking/internal/http/middleware"
)

func main() {
	_ = godotenv.Load()

	subject := flag.String("subject", "front-desk", "staff member the token is issued to")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg := appconfig.Load()
	token, err := httpmiddleware.IssueStaffToken(cfg.AdminJWTSecret, *subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "staff-token: %v (set ADMIN_JWT_SECRET)\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
