// Command main runs the development database seeder.
package main

import (
	"flag"
	"log"

	"capmatch/internal/config"
	"capmatch/internal/database"
	"capmatch/internal/seed"
)

func main() {
	numStudents := flag.Int("students", 60, "Number of students to create")
	numSupervisors := flag.Int("supervisors", 12, "Number of supervisors to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumStudents:    *numStudents,
		NumSupervisors: *numSupervisors,
		ShouldClean:    *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
