package main

import (
	"fmt"
	"os"
	"time"

	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
)

// reset_locks lists the interface locks and, given interface types as
// arguments, clears them. Run it only while no server is running.
func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := models.InitDB(&cfg.Database); err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	db := models.GetDB()

	var locks []models.InterfaceLock
	if err := db.Order("interface_type").Find(&locks).Error; err != nil {
		fmt.Printf("Failed to read locks: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-6s %-7s %-20s %-8s %s\n", "Type", "Locked", "Locked at", "Max (s)", "Server")
	for _, l := range locks {
		lockedAt, server := "-", "-"
		if l.LockedDate != nil {
			lockedAt = l.LockedDate.Format("2006-01-02 15:04:05")
		}
		if l.CurrentServer != nil {
			server = *l.CurrentServer
		}
		fmt.Printf("%-6s %-7d %-20s %-8d %s\n", l.InterfaceType, l.Locked, lockedAt, l.MaxLock, server)
	}

	for _, interfaceType := range os.Args[1:] {
		res := db.Model(&models.InterfaceLock{}).
			Where("interface_type = ?", interfaceType).
			Updates(map[string]interface{}{"locked": 0, "unlocked_date": time.Now()})
		if res.Error != nil {
			fmt.Printf("Failed to reset %s: %v\n", interfaceType, res.Error)
			os.Exit(1)
		}
		if res.RowsAffected == 0 {
			fmt.Printf("No lock row for %s\n", interfaceType)
			continue
		}
		fmt.Printf("Reset %s\n", interfaceType)
	}
}
