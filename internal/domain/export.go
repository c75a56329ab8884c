package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Export stores metadata about a ranking snapshot uploaded to object storage.
// The snapshot itself lives in S3 under ObjectKey.
type Export struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Mode      Mode               `bson:"mode" json:"mode"`
	ObjectKey string             `bson:"objectKey" json:"-"` // internal use
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Size      int64              `bson:"size" json:"size"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
