package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"price",
			"duration",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"discount_price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"duration": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  480,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"inactive",
					"coming_soon",
				},
			},

			"booking_count": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"completed_count": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},
		},
	},
}
