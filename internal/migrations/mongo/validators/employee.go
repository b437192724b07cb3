package validators

import "go.mongodb.org/mongo-driver/bson"

var EmployeeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"full_name",
			"status",
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

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"inactive",
					"on_leave",
				},
			},

			"total_bookings": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"completed_bookings": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"cancelled_bookings": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"total_revenue": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},
		},
	},
}
