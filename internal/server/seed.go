package server

import "github.com/desertthunder/vkx/internal/models"

// Demo credentials created by [Seed].
const (
	DemoEmail    = "demo@vinylkeeper.dev"
	DemoPassword = "vinyl"
)

// Seeded describes what [Seed] created.
type Seeded struct {
	Demo        models.User
	Other       models.User
	Collections []int64 // demo user's collections, then the other user's
	Places      []int64
}

func grade(v models.VinylState) *models.VinylState { return &v }

// Seed fills store with two users, a few collections, places and a searchable catalog.
func Seed(store *Store) Seeded {
	demo := store.AddUser("demo", DemoEmail, DemoPassword)
	other := store.AddUser("crate_digger", "digger@vinylkeeper.dev", "crates")

	out := Seeded{Demo: demo, Other: other}

	jazz := store.AddCollection(demo.ID, "Blue Note Shelf", "Hard bop and post bop", true)
	store.AddToCollection(jazz, demo.ID, models.AddItemRequest{
		ExternalID: "dz-302127", EntityType: models.EntityAlbum, Title: "Blue Train", Source: models.SourceDeezer,
		Condition: &models.Condition{Record: grade(models.NearMint), Cover: grade(models.VeryGood)},
	})
	store.AddToCollection(jazz, demo.ID, models.AddItemRequest{
		ExternalID: "dz-7817624", EntityType: models.EntityAlbum, Title: "Speak No Evil", Source: models.SourceDeezer,
	})
	store.AddToCollection(jazz, demo.ID, models.AddItemRequest{
		ExternalID: "dz-2757", EntityType: models.EntityArtist, Title: "John Coltrane", Source: models.SourceDeezer,
	})

	private := store.AddCollection(demo.ID, "To Clean", "Records waiting for the wash", false)
	store.AddToCollection(private, demo.ID, models.AddItemRequest{
		ExternalID: "dg-1873013", EntityType: models.EntityAlbum, Title: "Unknown Pleasures", Source: models.SourceDiscogs,
		Condition: &models.Condition{Record: grade(models.Good), Cover: grade(models.Fair)},
	})

	krautrock := store.AddCollection(other.ID, "Motorik", "Krautrock essentials", true)
	store.AddToCollection(krautrock, other.ID, models.AddItemRequest{
		ExternalID: "dz-103248", EntityType: models.EntityAlbum, Title: "Neu!", Source: models.SourceDeezer,
	})
	store.AddToCollection(krautrock, other.ID, models.AddItemRequest{
		ExternalID: "dz-1187", EntityType: models.EntityArtist, Title: "Can", Source: models.SourceDeezer,
	})
	store.SetCollectionLike(krautrock, demo.ID, true)

	out.Collections = []int64{jazz, private, krautrock}

	out.Places = []int64{
		store.AddPlace(models.Place{
			Name: "Rough Trade East", Address: "Dray Walk", City: "London", Country: "United Kingdom",
			Latitude: 51.5212, Longitude: -0.0716, PlaceType: models.PlaceType{ID: 1, Name: "Shop"},
			SubmittedBy: &models.UserMini{Username: other.Username, UUID: other.UUID},
		}),
		store.AddPlace(models.Place{
			Name: "Marché aux Puces", City: "Saint-Ouen", Country: "France",
			Latitude: 48.9022, Longitude: 2.3431, PlaceType: models.PlaceType{ID: 2, Name: "Market"},
		}),
	}

	store.AddCatalog(
		models.ExternalItem{ExternalID: "dz-302127", EntityType: models.EntityAlbum, Title: "Blue Train", Artist: "John Coltrane", Source: models.SourceDeezer},
		models.ExternalItem{ExternalID: "dz-301826", EntityType: models.EntityAlbum, Title: "A Love Supreme", Artist: "John Coltrane", Source: models.SourceDeezer},
		models.ExternalItem{ExternalID: "dz-7817624", EntityType: models.EntityAlbum, Title: "Speak No Evil", Artist: "Wayne Shorter", Source: models.SourceDeezer},
		models.ExternalItem{ExternalID: "dz-103248", EntityType: models.EntityAlbum, Title: "Neu!", Artist: "Neu!", Source: models.SourceDeezer},
		models.ExternalItem{ExternalID: "dz-2757", EntityType: models.EntityArtist, Title: "John Coltrane", Source: models.SourceDeezer},
		models.ExternalItem{ExternalID: "dz-1187", EntityType: models.EntityArtist, Title: "Can", Source: models.SourceDeezer},
	)
	return out
}
