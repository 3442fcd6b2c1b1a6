// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/models"
)

// SeedDemoData populates an empty database with a small demo catalog,
// three user profiles, and enough order history for the latent model to
// train. Intended for demos and local development; a non-empty catalog
// makes this a no-op.
func (db *DB) SeedDemoData(ctx context.Context) error {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
		return fmt.Errorf("failed to check catalog size: %w", err)
	}
	if count > 0 {
		logging.Debug().Int("items", count).Msg("Catalog not empty, skipping demo seed")
		return nil
	}

	logging.Info().Msg("Seeding demo catalog...")

	restaurants := []models.Restaurant{
		{ID: "rest-karachi-darbar", Name: "Karachi Darbar", Cuisine: "Pakistani", City: "Karachi", Active: true},
		{ID: "rest-dragon-wok", Name: "Dragon Wok", Cuisine: "Chinese", City: "Karachi", Active: true},
		{ID: "rest-burger-galli", Name: "Burger Galli", Cuisine: "Fast Food", City: "Karachi", Active: true},
	}
	for i := range restaurants {
		if err := db.UpsertRestaurant(ctx, &restaurants[i]); err != nil {
			return fmt.Errorf("failed to seed restaurant %s: %w", restaurants[i].ID, err)
		}
	}

	yes := true
	items := []models.MenuItem{
		{
			ID: "item-chicken-biryani", RestaurantID: "rest-karachi-darbar", Name: "Chicken Biryani",
			Description: "Sindhi-style biryani with raita", Price: 450, Category: "Main Course",
			Cuisine: "Pakistani", SpiceLevel: models.SpiceHot, IsHalal: &yes,
			Tags: []string{"rice", "chicken"}, AverageRating: 4.6, PopularityScore: 9.2, OrderCount: 820, Available: true,
		},
		{
			ID: "item-beef-nihari", RestaurantID: "rest-karachi-darbar", Name: "Beef Nihari",
			Description: "Slow-cooked shank stew", Price: 550, Category: "Main Course",
			Cuisine: "Pakistani", SpiceLevel: models.SpiceVeryHot, IsHalal: &yes,
			Tags: []string{"beef", "wheat"}, AverageRating: 4.8, PopularityScore: 8.7, OrderCount: 640, Available: true,
		},
		{
			ID: "item-daal-chawal", RestaurantID: "rest-karachi-darbar", Name: "Daal Chawal",
			Description: "Yellow lentils over steamed rice", Price: 280, Category: "Main Course",
			Cuisine: "Pakistani", SpiceLevel: models.SpiceMild, IsVegetarian: true, IsVegan: true, IsHalal: &yes,
			Tags: []string{"rice", "lentils"}, AverageRating: 4.2, PopularityScore: 7.1, OrderCount: 460, Available: true,
		},
		{
			ID: "item-chicken-karahi", RestaurantID: "rest-karachi-darbar", Name: "Chicken Karahi",
			Description: "Wok-fried tomato chicken", Price: 520, Category: "Main Course",
			Cuisine: "Pakistani", SpiceLevel: models.SpiceHot, IsHalal: &yes,
			Tags: []string{"chicken"}, AverageRating: 4.5, PopularityScore: 8.9, OrderCount: 710, Available: true,
		},
		{
			ID: "item-samosa", RestaurantID: "rest-karachi-darbar", Name: "Aloo Samosa",
			Description: "Crispy potato pastry, pair of two", Price: 90, Category: "Snacks",
			Cuisine: "Pakistani", SpiceLevel: models.SpiceMedium, IsVegetarian: true, IsHalal: &yes,
			Tags: []string{"wheat", "fried"}, AverageRating: 4.0, PopularityScore: 6.5, OrderCount: 530, Available: true,
		},
		{
			ID: "item-gulab-jamun", RestaurantID: "rest-karachi-darbar", Name: "Gulab Jamun",
			Description: "Syrup-soaked milk dumplings", Price: 150, Category: "Desserts",
			Cuisine: "Pakistani", SpiceLevel: models.SpiceMild, IsVegetarian: true, IsHalal: &yes,
			Tags: []string{"wheat", "sweet"}, AverageRating: 4.4, PopularityScore: 6.9, OrderCount: 390, Available: true,
		},
		{
			ID: "item-mango-lassi", RestaurantID: "rest-karachi-darbar", Name: "Mango Lassi",
			Description: "Yogurt shake with Sindhri mango", Price: 180, Category: "Beverages",
			Cuisine: "Pakistani", SpiceLevel: models.SpiceMild, IsVegetarian: true, IsHalal: &yes,
			Tags: []string{"yogurt", "sweet"}, AverageRating: 4.3, PopularityScore: 6.2, OrderCount: 350, Available: true,
		},
		{
			ID: "item-veg-manchurian", RestaurantID: "rest-dragon-wok", Name: "Vegetable Manchurian",
			Description: "Fried vegetable balls in garlic sauce", Price: 380, Category: "Main Course",
			Cuisine: "Chinese", SpiceLevel: models.SpiceMedium, IsVegetarian: true,
			Tags: []string{"fried"}, AverageRating: 3.9, PopularityScore: 5.8, OrderCount: 270, Available: true,
		},
		{
			ID: "item-chicken-chowmein", RestaurantID: "rest-dragon-wok", Name: "Chicken Chow Mein",
			Description: "Stir-fried noodles", Price: 420, Category: "Main Course",
			Cuisine: "Chinese", SpiceLevel: models.SpiceMedium, IsHalal: &yes,
			Tags: []string{"noodles", "wheat", "chicken"}, AverageRating: 4.1, PopularityScore: 7.4, OrderCount: 480, Available: true,
		},
		{
			ID: "item-hot-dragon-wings", RestaurantID: "rest-dragon-wok", Name: "Dragon Wings",
			Description: "Szechuan chili chicken wings", Price: 350, Category: "Snacks",
			Cuisine: "Chinese", SpiceLevel: models.SpiceVeryHot, IsHalal: &yes,
			Tags: []string{"chicken", "fried"}, AverageRating: 4.2, PopularityScore: 6.8, OrderCount: 310, Available: true,
		},
		{
			ID: "item-zinger-burger", RestaurantID: "rest-burger-galli", Name: "Zinger Burger",
			Description: "Crispy fried chicken burger", Price: 320, Category: "Main Course",
			Cuisine: "Fast Food", SpiceLevel: models.SpiceMedium, IsHalal: &yes,
			Tags: []string{"wheat", "chicken", "fried"}, AverageRating: 4.0, PopularityScore: 8.1, OrderCount: 690, Available: true,
		},
		{
			ID: "item-fries", RestaurantID: "rest-burger-galli", Name: "Masala Fries",
			Description: "Fries with chaat masala", Price: 150, Category: "Snacks",
			Cuisine: "Fast Food", SpiceLevel: models.SpiceMedium, IsVegetarian: true, IsVegan: true,
			Tags: []string{"fried", "potato"}, AverageRating: 3.8, PopularityScore: 6.0, OrderCount: 410, Available: true,
		},
		{
			ID: "item-chocolate-shake", RestaurantID: "rest-burger-galli", Name: "Chocolate Shake",
			Description: "Thick cocoa shake", Price: 250, Category: "Beverages",
			Cuisine: "Fast Food", SpiceLevel: models.SpiceMild, IsVegetarian: true,
			Tags: []string{"sweet"}, AverageRating: 4.1, PopularityScore: 5.5, OrderCount: 290, Available: true,
		},
		{
			ID: "item-seasonal-special", RestaurantID: "rest-karachi-darbar", Name: "Winter Special Paya",
			Description: "Off-season", Price: 600, Category: "Main Course",
			Cuisine: "Pakistani", SpiceLevel: models.SpiceHot, IsHalal: &yes,
			Tags: []string{"beef"}, AverageRating: 4.7, PopularityScore: 7.8, OrderCount: 210, Available: false,
		},
	}
	for i := range items {
		if err := db.UpsertItem(ctx, &items[i]); err != nil {
			return fmt.Errorf("failed to seed item %s: %w", items[i].ID, err)
		}
	}

	profiles := []models.UserProfile{
		{
			UserID: "demo-ayesha", Name: "Ayesha",
			FavoriteCuisines: []string{"Pakistani"}, SpicePreference: models.SpiceHot,
			DietaryRestrictions: []models.Dietary{models.DietHalal},
		},
		{
			UserID: "demo-bilal", Name: "Bilal",
			FavoriteCuisines: []string{"Fast Food", "Chinese"}, SpicePreference: models.SpiceMedium,
		},
		{
			UserID: "demo-zara", Name: "Zara",
			FavoriteCuisines: []string{"Pakistani", "Chinese"}, SpicePreference: models.SpiceMild,
			DietaryRestrictions: []models.Dietary{models.DietVegetarian},
		},
	}
	for i := range profiles {
		if err := db.SaveProfile(ctx, &profiles[i]); err != nil {
			return fmt.Errorf("failed to seed profile %s: %w", profiles[i].UserID, err)
		}
	}

	base := time.Now().UTC().AddDate(0, 0, -30)
	history := []models.Interaction{
		{UserID: "demo-ayesha", ItemID: "item-chicken-biryani", Quantity: 2, OrderedAt: base},
		{UserID: "demo-ayesha", ItemID: "item-chicken-biryani", Quantity: 1, OrderedAt: base.AddDate(0, 0, 7)},
		{UserID: "demo-ayesha", ItemID: "item-chicken-karahi", Quantity: 1, OrderedAt: base.AddDate(0, 0, 10)},
		{UserID: "demo-ayesha", ItemID: "item-beef-nihari", Quantity: 1, OrderedAt: base.AddDate(0, 0, 18)},
		{UserID: "demo-bilal", ItemID: "item-zinger-burger", Quantity: 3, OrderedAt: base.AddDate(0, 0, 2)},
		{UserID: "demo-bilal", ItemID: "item-fries", Quantity: 2, OrderedAt: base.AddDate(0, 0, 2)},
		{UserID: "demo-bilal", ItemID: "item-chicken-chowmein", Quantity: 1, OrderedAt: base.AddDate(0, 0, 12)},
		{UserID: "demo-bilal", ItemID: "item-chocolate-shake", Quantity: 1, OrderedAt: base.AddDate(0, 0, 20)},
		{UserID: "demo-zara", ItemID: "item-daal-chawal", Quantity: 2, OrderedAt: base.AddDate(0, 0, 4)},
		{UserID: "demo-zara", ItemID: "item-samosa", Quantity: 4, OrderedAt: base.AddDate(0, 0, 9)},
		{UserID: "demo-zara", ItemID: "item-veg-manchurian", Quantity: 1, OrderedAt: base.AddDate(0, 0, 16)},
		{UserID: "demo-zara", ItemID: "item-gulab-jamun", Quantity: 2, OrderedAt: base.AddDate(0, 0, 25)},
	}
	for i := range history {
		if err := db.AppendInteraction(ctx, &history[i]); err != nil {
			return fmt.Errorf("failed to seed interaction: %w", err)
		}
	}

	ratings := []models.Rating{
		{UserID: "demo-ayesha", ItemID: "item-chicken-biryani", Value: 5},
		{UserID: "demo-ayesha", ItemID: "item-beef-nihari", Value: 4},
		{UserID: "demo-bilal", ItemID: "item-zinger-burger", Value: 4},
		{UserID: "demo-bilal", ItemID: "item-veg-manchurian", Value: 2},
		{UserID: "demo-zara", ItemID: "item-daal-chawal", Value: 5},
		{UserID: "demo-zara", ItemID: "item-hot-dragon-wings", Value: 1},
	}
	for i := range ratings {
		if err := db.UpsertRating(ctx, &ratings[i]); err != nil {
			return fmt.Errorf("failed to seed rating: %w", err)
		}
	}

	logging.Info().
		Int("restaurants", len(restaurants)).
		Int("items", len(items)).
		Int("profiles", len(profiles)).
		Int("interactions", len(history)).
		Msg("Demo catalog seeded")

	return nil
}
