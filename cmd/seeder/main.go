package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/ammerola/keuringen-be/internal/adapters/db"
	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/pkg/logger"
)

// sheetLayout is the date format of the seed sheet
const sheetLayout = "2006-01-02 15:04"

// Seed sheet columns, in order
var seedColumns = []string{
	"datum_toewijzing", "voornaam", "familienaam", "emailadres", "straatnaam",
	"nummer", "postcode", "gemeente", "type", "status", "datum_plaatsbezoek", "prijs", "opmerkingen",
}

var (
	firstNames = []string{"Jan", "An", "Pieter", "Els", "Koen", "Sofie", "Tom", "Lien", "Wim", "Inge"}
	lastNames  = []string{"Peeters", "Janssens", "Maes", "Jacobs", "Willems", "Claes", "Goossens", "Wouters"}
	streets    = []string{"Kerkstraat", "Stationsstraat", "Molenstraat", "Dorpsstraat", "Nieuwstraat", "Schoolstraat"}
	towns      = []struct{ postcode, name string }{
		{"9000", "Gent"}, {"2000", "Antwerpen"}, {"3000", "Leuven"}, {"8000", "Brugge"}, {"2800", "Mechelen"},
	}
)

// SheetLoader reads inspections from the first sheet of an xlsx file
type SheetLoader struct {
	loc    *time.Location
	logger *slog.Logger
}

// Load parses every non-empty row after the header. Rows that fail to
// parse are logged and skipped.
func (l *SheetLoader) Load(path string) ([]domain.CreateInspectionInput, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, errors.New("no sheets found in seed file")
	}

	var out []domain.CreateInspectionInput
	rowIdx := 0
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if rowIdx == 1 {
			return nil
		}

		cells := make([]string, len(seedColumns))
		for i := range cells {
			if c := r.GetCell(i); c != nil {
				if s, err := c.FormattedValue(); err == nil {
					cells[i] = strings.TrimSpace(s)
				} else {
					cells[i] = strings.TrimSpace(c.String())
				}
			}
		}
		if strings.Join(cells, "") == "" {
			return nil
		}

		in, err := parseRow(cells, l.loc)
		if err != nil {
			l.logger.Warn("skipping row", slog.Int("row", rowIdx), slog.String("error", err.Error()))
			return nil
		}
		out = append(out, in)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	l.logger.Info("loaded seed sheet", slog.String("file", path), slog.Int("count", len(out)))
	return out, nil
}

// parseRow maps one sheet row, laid out as seedColumns, onto a create input
func parseRow(cells []string, loc *time.Location) (domain.CreateInspectionInput, error) {
	get := func(name string) string {
		for i, col := range seedColumns {
			if col == name && i < len(cells) {
				return cells[i]
			}
		}
		return ""
	}

	in := domain.CreateInspectionInput{
		FirstName:    get("voornaam"),
		LastName:     get("familienaam"),
		Email:        get("emailadres"),
		Street:       get("straatnaam"),
		Number:       get("nummer"),
		PostalCode:   get("postcode"),
		Municipality: get("gemeente"),
		Type:         domain.InspectionType(get("type")),
		Status:       domain.InspectionStatus(get("status")),
		Notes:        get("opmerkingen"),
	}

	if raw := get("datum_toewijzing"); raw != "" {
		t, err := time.ParseInLocation(sheetLayout, raw, loc)
		if err != nil {
			return in, fmt.Errorf("datum_toewijzing %q: %w", raw, err)
		}
		in.AssignedAt = t
	}
	if raw := get("datum_plaatsbezoek"); raw != "" {
		t, err := time.ParseInLocation(sheetLayout, raw, loc)
		if err != nil {
			return in, fmt.Errorf("datum_plaatsbezoek %q: %w", raw, err)
		}
		in.SiteVisitAt = &t
	}
	if raw := get("prijs"); raw != "" {
		p, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
		if err != nil {
			return in, fmt.Errorf("prijs %q: %w", raw, err)
		}
		in.Price = &p
	}

	return in, in.Validate()
}

// demoInspections generates n random inspections assigned over the last
// three months
func demoInspections(n int, rng *rand.Rand, now time.Time) []domain.CreateInspectionInput {
	out := make([]domain.CreateInspectionInput, 0, n)
	for range n {
		first := firstNames[rng.IntN(len(firstNames))]
		last := lastNames[rng.IntN(len(lastNames))]
		town := towns[rng.IntN(len(towns))]
		status := domain.AllStatuses[rng.IntN(len(domain.AllStatuses))]
		price := decimal.NewFromInt(int64(120 + rng.IntN(30)*5))

		in := domain.CreateInspectionInput{
			AssignedAt:   now.Add(-time.Duration(rng.IntN(90*24)) * time.Hour).Truncate(time.Hour),
			Status:       status,
			Type:         domain.AllTypes[rng.IntN(len(domain.AllTypes))],
			Price:        &price,
			Street:       streets[rng.IntN(len(streets))],
			Number:       fmt.Sprint(1 + rng.IntN(150)),
			PostalCode:   town.postcode,
			Municipality: town.name,
			FirstName:    first,
			LastName:     last,
			Email:        strings.ToLower(first+"."+last) + "@example.be",
		}
		if status == domain.StatusPlanned {
			visit := now.Add(time.Duration(24+rng.IntN(21*24)) * time.Hour).Truncate(time.Hour)
			in.SiteVisitAt = &visit
		}
		out = append(out, in)
	}
	return out
}

// seedUser creates the company and its user unless the email is already
// registered, and returns the user id
func seedUser(ctx context.Context, database *db.Database, company, email, password string) (uuid.UUID, error) {
	var id uuid.UUID
	err := database.QueryRow(ctx, `SELECT id FROM gebruiker WHERE lower(email) = lower($1)`, email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err = database.Transaction(ctx, func(tx pgx.Tx) error {
		var companyID uuid.UUID
		if err := tx.QueryRow(ctx, `INSERT INTO onderneming (naam) VALUES ($1) RETURNING id`, company).Scan(&companyID); err != nil {
			return fmt.Errorf("failed to insert company: %w", err)
		}
		return tx.QueryRow(ctx,
			`INSERT INTO gebruiker (email, password_hash, onderneming_id) VALUES ($1, $2, $3) RETURNING id`,
			email, string(hash), companyID,
		).Scan(&id)
	})
	return id, err
}

func main() {
	var (
		seedFile = flag.String("file", "", "xlsx file with inspections ("+strings.Join(seedColumns, ", ")+")")
		count    = flag.Int("count", 25, "Number of demo inspections to generate when no file is given")
		company  = flag.String("company", "Immo Noord", "Company of the seeded user")
		email    = flag.String("email", "demo@keuringen.be", "Email of the seeded user")
		password = flag.String("password", "keuringen-demo", "Password of the seeded user")
		timezone = flag.String("timezone", "Europe/Brussels", "Zone the sheet dates are in")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Preview changes without modifying database")
	)
	flag.Parse()

	log := logger.SetupLogger(*logLevel, "json")

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		log.Error("Invalid timezone", slog.String("timezone", *timezone), slog.String("error", err.Error()))
		os.Exit(1)
	}

	var inputs []domain.CreateInspectionInput
	if *seedFile != "" {
		inputs, err = (&SheetLoader{loc: loc, logger: log}).Load(*seedFile)
		if err != nil {
			log.Error("Failed to load seed file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		inputs = demoInspections(*count, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 42)), time.Now().In(loc))
	}

	if *dryRun {
		for _, in := range inputs {
			fmt.Printf("%s  %-14s %-22s %s %s, %s\n", domain.FormatDate(in.AssignedAt, loc), in.Type,
				in.FirstName+" "+in.LastName, in.Street, in.Number, in.Municipality)
		}
		fmt.Printf("\n[DRY RUN] %d inspections, no changes were made to the database\n", len(inputs))
		return
	}

	ctx := context.Background()
	cfg := db.DefaultConfig()
	cfg.Host = getEnv("DB_HOST", cfg.Host)
	cfg.Port = getEnv("DB_PORT", cfg.Port)
	cfg.User = getEnv("DB_USER", cfg.User)
	cfg.Password = getEnv("DB_PASSWORD", cfg.Password)
	cfg.Database = getEnv("DB_NAME", cfg.Database)
	cfg.SSLMode = getEnv("DB_SSL_MODE", cfg.SSLMode)

	database, err := db.NewDatabase(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	userID, err := seedUser(ctx, database, *company, *email, *password)
	if err != nil {
		log.Error("Failed to seed user", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := db.NewInspectionRepository(database, log)
	created, failed := 0, 0
	for i, in := range inputs {
		in.CreatedBy = userID
		if _, err := repo.Create(ctx, in); err != nil {
			log.Error("Failed to insert inspection", slog.Int("index", i), slog.String("error", err.Error()))
			failed++
			continue
		}
		created++
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("User:                 %s (%s)\n", *email, *company)
	fmt.Printf("Inspections created:  %d\n", created)
	fmt.Printf("Inspections failed:   %d\n", failed)

	log.Info("Seed operation completed",
		slog.Int("inspections_created", created),
		slog.Int("inspections_failed", failed))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
