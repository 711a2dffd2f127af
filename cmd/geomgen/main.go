// Command geomgen is a one-shot tool that generates display rectangles for
// a spot's sub-spots by walking the spot's centerline and dividing it into
// evenly spaced bands. It is run offline after provisioning catalog rows;
// the server never computes geometry at request time.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"parkspot-backend/config"
	"parkspot-backend/internal/db"
	"parkspot-backend/internal/geo"
	"parkspot-backend/internal/model"
)

func main() {
	var (
		configPath = flag.String("config", "./config/config.yaml", "path to config file")
		spotID     = flag.Int64("spot", 0, "spot ID to generate geometry for")
		count      = flag.Int("count", 0, "number of sub-spot bands (0 = use existing sub-spot count)")
		width      = flag.Float64("width", 2.5, "band width in meters")
	)
	flag.Parse()

	if *spotID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: geomgen -spot <id> [-count N] [-width meters]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	var spot model.Spot
	if err := gormDB.First(&spot, *spotID).Error; err != nil {
		log.Fatalf("spot %d not found: %v", *spotID, err)
	}
	if spot.Centerline == "" {
		log.Fatalf("spot %d has no centerline", *spotID)
	}

	var pairs [][2]float64
	if err := json.Unmarshal([]byte(spot.Centerline), &pairs); err != nil {
		log.Fatalf("spot %d centerline is not a JSON coordinate list: %v", *spotID, err)
	}
	line := make([]geo.Point, len(pairs))
	for i, p := range pairs {
		line[i] = geo.Point{Lng: p[0], Lat: p[1]}
	}

	var subSpots []model.SubSpot
	if err := gormDB.Where("spot_id = ?", spot.ID).Order("seq ASC").Find(&subSpots).Error; err != nil {
		log.Fatalf("failed to list sub-spots: %v", err)
	}

	n := *count
	if n <= 0 {
		n = len(subSpots)
	}
	if n <= 0 {
		log.Fatalf("spot %d has no sub-spots and no -count was given", *spotID)
	}

	bands := geo.Bands(line, n, *width)
	if bands == nil {
		log.Fatalf("centerline of spot %d is too short to divide", *spotID)
	}

	for i, band := range bands {
		// Stored in the same [lng, lat] pair form as the centerline.
		ringPairs := make([][2]float64, len(band))
		for j, pt := range band {
			ringPairs[j] = [2]float64{pt.Lng, pt.Lat}
		}
		ring, err := json.Marshal(ringPairs)
		if err != nil {
			log.Fatalf("failed to encode band %d: %v", i, err)
		}

		if i < len(subSpots) {
			err = gormDB.Model(&subSpots[i]).Update("geometry", string(ring)).Error
		} else {
			err = gormDB.Create(&model.SubSpot{
				SpotID:   spot.ID,
				Seq:      i,
				Geometry: string(ring),
			}).Error
		}
		if err != nil {
			log.Fatalf("failed to store band %d: %v", i, err)
		}
	}

	log.Printf("wrote %d bands for spot %d (%s)", len(bands), spot.ID, spot.Name)
}
