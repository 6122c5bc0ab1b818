package main

import (
	"context"

	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/services"
	"github.com/traxaero/interfaces/pkg/logger"
	"gorm.io/gorm"
)

func employeeJob(db *gorm.DB, ifaces *config.InterfacesConfig, notifier services.Notifier) services.InterfaceJob {
	cfg := &ifaces.Employee
	var decrypter services.FileDecrypter
	if cfg.SecretKeyFile != "" {
		d, err := services.LoadPGPDecrypter(cfg.SecretKeyFile, cfg.Passphrase)
		if err != nil {
			logger.Fatalf("Failed to load employee secret key: %v", err)
		}
		decrypter = d
	}
	return services.NewEmployeeJob(services.NewEmployeeService(db), cfg, notifier, decrypter)
}

func shiftJob(db *gorm.DB, ifaces *config.InterfacesConfig) services.InterfaceJob {
	cfg := &ifaces.Shift
	var encrypter services.FileEncrypter
	if cfg.EncryptOutput {
		e, err := services.LoadPGPEncrypter(cfg.PublicKeyFile)
		if err != nil {
			logger.Fatalf("Failed to load shift public key: %v", err)
		}
		encrypter = e
	}
	return services.NewShiftJob(db, cfg, encrypter)
}

func eslotJob(ctx context.Context, cfg *config.Config, db *gorm.DB, notifier services.Notifier) services.InterfaceJob {
	eslotCfg := &cfg.Interfaces.ESlot
	if eslotCfg.QueueURL == "" {
		logger.Fatalf("eSlot is enabled but interfaces.eslot.queue_url is empty")
	}
	client, err := services.NewSQSClient(ctx, cfg.AWS.Region)
	if err != nil {
		logger.Fatalf("Failed to create SQS client: %v", err)
	}
	queue := services.NewSQSQueue(client, eslotCfg.QueueURL, eslotCfg.WaitTimeSeconds)
	return services.NewESlotJob(services.NewESlotService(db, eslotCfg), queue, eslotCfg, notifier)
}
