package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/campaign-links/pkg/app"
	"github.com/wadjakorntonsri/campaign-links/pkg/config"
	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

const usage = `usage: cli <command> [flags]

commands:
  export                       dump all shortened links as JSON
  import -file F               load interests, campaigns, profiles, posts and domains
  domain add -host H           register a short-link domain
  domain activate -id ID       make a domain the active one
  domain list                  list registered domains
  provision -post ID [-url U]  mint and send links for a post
  regenerate                   run provisioning for every post
  token -sub S [-ttl D]        mint an admin API token`

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	provisionCmd := flag.NewFlagSet("provision", flag.ExitOnError)
	postID := provisionCmd.String("post", "", "post ID")
	destURL := provisionCmd.String("url", "", "destination URL (defaults to the post URL)")

	regenerateCmd := flag.NewFlagSet("regenerate", flag.ExitOnError)

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	subject := tokenCmd.String("sub", "", "token subject (admin email)")
	ttl := tokenCmd.Duration("ttl", 24*time.Hour, "token lifetime")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	ctx := context.Background()

	// token needs no database
	if os.Args[1] == "token" {
		tokenCmd.Parse(os.Args[2:])
		if *subject == "" {
			tokenCmd.PrintDefaults()
			os.Exit(1)
		}
		doToken(cfg, *subject, *ttl)
		return
	}

	a, err := app.New(cfg, cfg.NewLogger())
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	defer a.Repo.Close()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		doExport(ctx, a.Repo)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		doImport(ctx, a, *importFile)
	case "domain":
		doDomain(ctx, a, os.Args[2:])
	case "provision":
		provisionCmd.Parse(os.Args[2:])
		if *postID == "" {
			provisionCmd.PrintDefaults()
			os.Exit(1)
		}
		result, err := a.Provisioner.Provision(ctx, *postID, *destURL)
		if err != nil {
			log.Fatalf("Provision failed: %v", err)
		}
		printJSON(result)
	case "regenerate":
		regenerateCmd.Parse(os.Args[2:])
		result, err := a.Provisioner.RegenerateAll(ctx)
		if err != nil {
			log.Fatalf("Regenerate failed: %v", err)
		}
		printJSON(result)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func doDomain(ctx context.Context, a *app.App, args []string) {
	if len(args) < 1 {
		fmt.Println(usage)
		os.Exit(1)
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("domain add", flag.ExitOnError)
		host := fs.String("host", "", "hostname, e.g. go.example.com")
		fs.Parse(args[1:])
		d, err := a.Domains.AddDomain(ctx, *host)
		if err != nil {
			log.Fatalf("Add domain failed: %v", err)
		}
		printJSON(d)
	case "activate":
		fs := flag.NewFlagSet("domain activate", flag.ExitOnError)
		id := fs.String("id", "", "domain ID")
		fs.Parse(args[1:])
		d, err := a.Domains.Activate(ctx, *id)
		if err != nil {
			log.Fatalf("Activate domain failed: %v", err)
		}
		printJSON(d)
	case "list":
		domains, err := a.Domains.List(ctx)
		if err != nil {
			log.Fatalf("List domains failed: %v", err)
		}
		printJSON(domains)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func doExport(ctx context.Context, repo *sqlite.SQLiteRepository) {
	links, err := repo.Dump(ctx)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	printJSON(links)
}

// catalog is the import file layout.
type catalog struct {
	Interests []domain.Interest `json:"interests"`
	Campaigns []struct {
		domain.Campaign
		InterestIDs []string `json:"interest_ids"`
	} `json:"campaigns"`
	Profiles []struct {
		domain.Profile
		InterestIDs []string `json:"interest_ids"`
	} `json:"profiles"`
	Posts   []domain.Post `json:"posts"`
	Domains []string      `json:"domains"`
}

func doImport(ctx context.Context, a *app.App, filename string) {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	var c catalog
	if err := json.NewDecoder(file).Decode(&c); err != nil {
		log.Fatalf("Decode failed: %v", err)
	}

	repo := a.Repo
	for i := range c.Interests {
		if err := repo.CreateInterest(ctx, &c.Interests[i]); err != nil {
			log.Printf("Failed to import interest %s: %v", c.Interests[i].Name, err)
		}
	}
	for i := range c.Campaigns {
		camp := &c.Campaigns[i]
		if err := repo.CreateCampaign(ctx, &camp.Campaign); err != nil {
			log.Printf("Failed to import campaign %s: %v", camp.Name, err)
			continue
		}
		for _, interestID := range camp.InterestIDs {
			if err := repo.AddCampaignInterest(ctx, camp.ID, interestID); err != nil {
				log.Printf("Failed to link campaign %s to interest %s: %v", camp.ID, interestID, err)
			}
		}
	}
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if err := repo.UpsertProfile(ctx, &p.Profile); err != nil {
			log.Printf("Failed to import profile %s: %v", p.UserID, err)
			continue
		}
		for _, interestID := range p.InterestIDs {
			if err := repo.AddUserInterest(ctx, p.UserID, interestID); err != nil {
				log.Printf("Failed to link user %s to interest %s: %v", p.UserID, interestID, err)
			}
		}
	}
	for i := range c.Posts {
		if err := repo.CreatePost(ctx, &c.Posts[i]); err != nil {
			log.Printf("Failed to import post %s: %v", c.Posts[i].URL, err)
		}
	}
	for _, host := range c.Domains {
		if _, err := a.Domains.AddDomain(ctx, host); err != nil {
			log.Printf("Skipping domain %s: %v", host, err)
		}
	}

	log.Printf("Imported %d interests, %d campaigns, %d profiles, %d posts",
		len(c.Interests), len(c.Campaigns), len(c.Profiles), len(c.Posts))
}

func doToken(cfg *config.Config, subject string, ttl time.Duration) {
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}

func printJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
}
