package sts_test

import (
	"context"
	"log"
	"time"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/sts"
)

func ExampleResolve() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := sts.Resolve(ctx, "https://sts.example.com", sts.WithDomain("tenant-a"))
	if errors.IsInitError(err) {
		details := errors.GetDetails(err)
		log.Printf("discovery failed for %v: %v", details["url"], err)
		return
	}
	defer cfg.Close()

	log.Println(cfg.TokenEndpoint())
}
