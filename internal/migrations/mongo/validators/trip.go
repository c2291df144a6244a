package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = []string{"int", "long"}

var bookingSchema = bson.M{
	"bsonType": "object",
	"required": []string{
		"order_id",
		"participant_id",
		"payment_authorization_id",
		"amount",
		"status",
		"created_at",
	},
	"properties": bson.M{
		"order_id": bson.M{
			"bsonType":  "string",
			"minLength": 1,
			"maxLength": 64,
		},
		"participant_id": bson.M{
			"bsonType":  "string",
			"minLength": 1,
			"maxLength": 128,
		},
		"payment_authorization_id": bson.M{
			"bsonType":  "string",
			"minLength": 1,
		},
		"seats": bson.M{
			"bsonType": integer,
			"minimum":  0,
		},
		"amount": bson.M{
			"bsonType": integer,
			"minimum":  1,
		},
		"status": bson.M{
			"enum": []string{"authorized", "captured", "cancelled", "disputed"},
		},
		"created_at":             bson.M{"bsonType": "date"},
		"driver_confirmed_at":    bson.M{"bsonType": []string{"date", "null"}},
		"passenger_confirmed_at": bson.M{"bsonType": []string{"date", "null"}},
		"captured_at":            bson.M{"bsonType": []string{"date", "null"}},
		"cancelled_at":           bson.M{"bsonType": []string{"date", "null"}},
		"disputed_at":            bson.M{"bsonType": []string{"date", "null"}},
		"disputed_by": bson.M{
			"enum": []string{"driver", "passenger"},
		},
	},
}

var TripValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"driver_id",
			"departure_city",
			"arrival_city",
			"date",
			"time",
			"price_per_seat",
			"total_seats",
			"available_seats",
			"participants",
			"bookings",
			"active",
			"version",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"driver_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"driver_email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+$",
			},

			"departure_city": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
				"pattern":   "^[a-z_]+$",
			},

			"arrival_city": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
				"pattern":   "^[a-z_]+$",
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"time": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{2}:\\d{2}$",
			},

			"price_per_seat": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"total_seats": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  8,
			},

			"available_seats": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"participants": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"bookings": bson.M{
				"bsonType": "array",
				"items":    bookingSchema,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"version": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

var TripLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string", "pattern": "^trip_lock_"},
			"owner":      bson.M{"bsonType": "string", "minLength": 1},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
