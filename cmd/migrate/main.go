package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"ktrek/internal/datastore"
	"ktrek/internal/models"
	"ktrek/internal/services"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandSeedTasks(),
			commandSeedRewards(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUser(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableTask(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableTaskCompletion(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableRewardDefinition(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUserReward(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUserStats(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableCategoryProgress(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate-config",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			defaults := map[string]string{
				services.CONFIG_SCHEMA_VERSION:             services.SCHEMA_VERSION,
				services.CONFIG_XP_COMMON:                  strconv.Itoa(services.DEFAULT_XP_COMMON),
				services.CONFIG_XP_RARE:                    strconv.Itoa(services.DEFAULT_XP_RARE),
				services.CONFIG_XP_EPIC:                    strconv.Itoa(services.DEFAULT_XP_EPIC),
				services.CONFIG_XP_LEGENDARY:               strconv.Itoa(services.DEFAULT_XP_LEGENDARY),
				services.CONFIG_TIER_BRONZE_PERCENT:        strconv.Itoa(services.DEFAULT_TIER_BRONZE_PERCENT),
				services.CONFIG_TIER_SILVER_PERCENT:        strconv.Itoa(services.DEFAULT_TIER_SILVER_PERCENT),
				services.CONFIG_TIER_GOLD_PERCENT:          strconv.Itoa(services.DEFAULT_TIER_GOLD_PERCENT),
				services.CONFIG_GPS_MAX_ACCURACY_M:         strconv.Itoa(services.DEFAULT_GPS_MAX_ACCURACY_M),
				services.CONFIG_LEVEL_BASE_XP:              strconv.Itoa(services.DEFAULT_LEVEL_BASE_XP),
				services.CONFIG_LEVEL_MAX:                  strconv.Itoa(services.DEFAULT_LEVEL_MAX),
				services.CONFIG_OVERALL_LEADERBOARD_LIMIT:  strconv.Itoa(services.OVERALL_LEADERBOARD_DEFAULT_LIMIT),
				services.CONFIG_CHECKIN_RATE_LIMIT_PER_MIN: strconv.Itoa(services.DEFAULT_CHECKIN_RATE_LIMIT_PER_MIN),
			}

			for key, value := range defaults {
				err := datastore.InsertConfig(ctx, db, models.Config{Key: key, Value: value})
				if err != nil {
					log.Fatal(err)
				}
			}

			fmt.Println("Config migration success")

			return nil
		},
	}
}

// commandSeedTasks loads the task catalog from a csv export:
// slug,name,type,category,latitude,longitude,allowed_radius_m,qr_secret,ep
func commandSeedTasks() *cli.Command {
	return &cli.Command{
		Name: "seed-tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Value: "./tasks.csv",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			file, err := os.Open(c.String("input"))
			if err != nil {
				log.Fatal(err)
			}
			defer file.Close()

			rows, err := csv.NewReader(file).ReadAll()
			if err != nil {
				log.Fatal(err)
			}

			count := 0
			for i, row := range rows {
				if i == 0 {
					continue // header
				}
				if len(row) < 9 {
					log.Fatalf("row %d: expected 9 columns, got %d", i, len(row))
				}

				task := &models.Task{
					Slug:     row[0],
					Name:     row[1],
					Type:     models.TaskType(row[2]),
					Category: row[3],
					Enabled:  true,
				}

				if row[4] != "" && row[5] != "" {
					lat, err := strconv.ParseFloat(row[4], 64)
					if err != nil {
						log.Fatal(err)
					}
					lng, err := strconv.ParseFloat(row[5], 64)
					if err != nil {
						log.Fatal(err)
					}
					task.Latitude = &lat
					task.Longitude = &lng
				}

				if row[6] != "" {
					radius, err := strconv.ParseFloat(row[6], 64)
					if err != nil {
						log.Fatal(err)
					}
					task.AllowedRadiusM = radius
				}

				if row[7] != "" {
					secret := row[7]
					task.QRSecret = &secret
				}

				if row[8] != "" {
					ep, err := strconv.Atoi(row[8])
					if err != nil {
						log.Fatal(err)
					}
					task.EP = ep
				}

				if err := datastore.CreateTask(ctx, db, task); err != nil {
					log.Fatal(err)
				}
				count++
			}

			fmt.Printf("Seeded %d tasks\n", count)

			return nil
		},
	}
}

// commandSeedRewards loads reward definitions from a json array.
func commandSeedRewards() *cli.Command {
	return &cli.Command{
		Name: "seed-rewards",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Value: "./rewards.json",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			raw, err := os.ReadFile(c.String("input"))
			if err != nil {
				log.Fatal(err)
			}

			var definitions []models.RewardDefinition
			if err := json.Unmarshal(raw, &definitions); err != nil {
				log.Fatal(err)
			}

			for i := range definitions {
				definitions[i].Enabled = true

				// reject malformed conditions before they reach the evaluator
				if _, err := definitions[i].Condition(); err != nil {
					log.Fatalf("%s: %v", definitions[i].RewardIdentifier, err)
				}

				if err := datastore.CreateRewardDefinition(ctx, db, &definitions[i]); err != nil {
					log.Fatal(err)
				}
			}

			fmt.Printf("Seeded %d reward definitions\n", len(definitions))

			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
