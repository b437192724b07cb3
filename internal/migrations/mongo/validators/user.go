package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"full_name",
			"phone",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"full_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"phone": bson.M{
				"bsonType": "string",
			},

			"email": bson.M{
				"bsonType": "string",
			},

			"membership_tier": bson.M{
				"bsonType": "string",
				"enum": []string{
					"bronze",
					"silver",
					"gold",
					"platinum",
				},
			},

			"loyalty_points": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"total_spent": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"total_bookings": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},
		},
	},
}
