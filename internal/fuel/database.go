package fuel

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	purchaseBucketName    = "purchases"
	tripBucketName        = "trips"
	settingsBucketName    = "settings"
	maintenanceBucketName = "maintenance"
)

// DB defines the interface for database operations
type DB interface {
	// SavePurchase saves a purchase to the database
	SavePurchase(purchase *Purchase) error

	// GetPurchase retrieves a purchase by ID
	GetPurchase(id string) (*Purchase, error)

	// ListPurchases returns all purchases
	ListPurchases() ([]*Purchase, error)

	// DeletePurchase removes a purchase from the database
	DeletePurchase(id string) error

	// SaveTrip saves a trip to the database
	SaveTrip(trip *Trip) error

	// GetTrip retrieves a trip by ID
	GetTrip(id string) (*Trip, error)

	// ListTrips returns all trips
	ListTrips() ([]*Trip, error)

	// DeleteTrip removes a trip from the database
	DeleteTrip(id string) error

	// SaveMaintenance saves a maintenance item to the database
	SaveMaintenance(item *MaintenanceItem) error

	// GetMaintenance retrieves a maintenance item by ID
	GetMaintenance(id string) (*MaintenanceItem, error)

	// ListMaintenance returns all maintenance items
	ListMaintenance() ([]*MaintenanceItem, error)

	// DeleteMaintenance removes a maintenance item from the database
	DeleteMaintenance(id string) error

	// GetSetting returns a stored setting, nil when unset
	GetSetting(key string) ([]byte, error)

	// PutSetting stores a setting
	PutSetting(key string, value []byte) error

	// DeleteSetting removes a setting
	DeleteSetting(key string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{purchaseBucketName, tripBucketName, maintenanceBucketName, settingsBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) put(bucketName, id string, v any) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", bucketName, err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(id), data)
	})
}

func (b *BoltDB) get(bucketName, id string, v any) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s %s: %w", bucketName, id, ErrNotFound)
		}
		return json.Unmarshal(data, v)
	})
}

func (b *BoltDB) remove(bucketName, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%s %s: %w", bucketName, id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// list decodes every value in a bucket with decode
func (b *BoltDB) list(bucketName string, decode func(v []byte) error) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(_, v []byte) error {
			if err := decode(v); err != nil {
				return fmt.Errorf("unmarshaling %s: %w", bucketName, err)
			}
			return nil
		})
	})
}

// SavePurchase saves a purchase to the database
func (b *BoltDB) SavePurchase(purchase *Purchase) error {
	return b.put(purchaseBucketName, purchase.ID, purchase)
}

// GetPurchase retrieves a purchase by ID
func (b *BoltDB) GetPurchase(id string) (*Purchase, error) {
	var purchase Purchase
	if err := b.get(purchaseBucketName, id, &purchase); err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases returns all purchases
func (b *BoltDB) ListPurchases() ([]*Purchase, error) {
	purchases := make([]*Purchase, 0)
	err := b.list(purchaseBucketName, func(v []byte) error {
		var purchase Purchase
		if err := json.Unmarshal(v, &purchase); err != nil {
			return err
		}
		purchases = append(purchases, &purchase)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

// DeletePurchase removes a purchase from the database
func (b *BoltDB) DeletePurchase(id string) error {
	return b.remove(purchaseBucketName, id)
}

// SaveTrip saves a trip to the database
func (b *BoltDB) SaveTrip(trip *Trip) error {
	return b.put(tripBucketName, trip.ID, trip)
}

// GetTrip retrieves a trip by ID
func (b *BoltDB) GetTrip(id string) (*Trip, error) {
	var trip Trip
	if err := b.get(tripBucketName, id, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// ListTrips returns all trips
func (b *BoltDB) ListTrips() ([]*Trip, error) {
	trips := make([]*Trip, 0)
	err := b.list(tripBucketName, func(v []byte) error {
		var trip Trip
		if err := json.Unmarshal(v, &trip); err != nil {
			return err
		}
		trips = append(trips, &trip)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// DeleteTrip removes a trip from the database
func (b *BoltDB) DeleteTrip(id string) error {
	return b.remove(tripBucketName, id)
}

// SaveMaintenance saves a maintenance item to the database
func (b *BoltDB) SaveMaintenance(item *MaintenanceItem) error {
	return b.put(maintenanceBucketName, item.ID, item)
}

// GetMaintenance retrieves a maintenance item by ID
func (b *BoltDB) GetMaintenance(id string) (*MaintenanceItem, error) {
	var item MaintenanceItem
	if err := b.get(maintenanceBucketName, id, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListMaintenance returns all maintenance items
func (b *BoltDB) ListMaintenance() ([]*MaintenanceItem, error) {
	items := make([]*MaintenanceItem, 0)
	err := b.list(maintenanceBucketName, func(v []byte) error {
		var item MaintenanceItem
		if err := json.Unmarshal(v, &item); err != nil {
			return err
		}
		items = append(items, &item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteMaintenance removes a maintenance item from the database
func (b *BoltDB) DeleteMaintenance(id string) error {
	return b.remove(maintenanceBucketName, id)
}

// GetSetting returns a copy of a stored setting, nil when unset
func (b *BoltDB) GetSetting(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(settingsBucketName)).Get([]byte(key)); v != nil {
			// bbolt values are only valid inside the transaction
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// PutSetting stores a setting
func (b *BoltDB) PutSetting(key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(settingsBucketName)).Put([]byte(key), value)
	})
}

// DeleteSetting removes a setting
func (b *BoltDB) DeleteSetting(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(settingsBucketName)).Delete([]byte(key))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
