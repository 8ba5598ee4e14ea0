package storage

import (
	"context"
	"reflect"
	"regexp"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/models"
)

const defaultMongoDatabase = "smartcart"

type MongoDriver struct {
	client *mongo.Client
	db     *mongo.Database
}

func (md *MongoDriver) Connect(ctx context.Context, opts Options) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.DSN).SetRegistry(mongoRegistry()))
	if err != nil {
		return apperr.Unavailable(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return apperr.Unavailable(err, "ping mongo")
	}

	name := opts.Database
	if name == "" {
		name = defaultMongoDatabase
	}
	db := client.Database(name)
	_, err = db.Collection("cart_items").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(ctx)
		return apperr.Unavailable(err, "create cart_items index")
	}

	md.client = client
	md.db = db
	return nil
}

func (md *MongoDriver) Close(ctx context.Context) error {
	if md.client == nil {
		return nil
	}
	return md.client.Disconnect(ctx)
}

func (md *MongoDriver) Products() ProductRepository {
	return &mongoProducts{coll: md.db.Collection("products")}
}

func (md *MongoDriver) Carts() CartRepository {
	return &mongoCarts{carts: md.db.Collection("carts"), items: md.db.Collection("cart_items")}
}

type mongoProducts struct {
	coll *mongo.Collection
}

func (mp *mongoProducts) Get(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := mp.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, apperr.NotFound("product %s", id)
	}
	if err != nil {
		return p, apperr.Unavailable(err, "get product %s", id)
	}
	return p, nil
}

func mongoProductFilter(filter models.ProductFilter) bson.M {
	query := bson.M{}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	if filter.Category != "" {
		query["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.Category) + "$", Options: "i"}
	}
	return query
}

func (mp *mongoProducts) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	cur, err := mp.coll.Find(ctx, mongoProductFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Unavailable(err, "list products")
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, apperr.Unavailable(err, "decode products")
	}
	return products, nil
}

func (mp *mongoProducts) Put(ctx context.Context, p models.Product) error {
	_, err := mp.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	return apperr.Unavailable(err, "put product %s", p.ID)
}

type mongoCarts struct {
	carts *mongo.Collection
	items *mongo.Collection
}

func (mc *mongoCarts) HasCart(ctx context.Context, userID string) (bool, error) {
	n, err := mc.carts.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	return n > 0, apperr.Unavailable(err, "check cart %s", userID)
}

func (mc *mongoCarts) Items(ctx context.Context, userID string) ([]models.CartItem, error) {
	cur, err := mc.items.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Unavailable(err, "list cart %s", userID)
	}
	items := []models.CartItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, apperr.Unavailable(err, "decode cart %s", userID)
	}
	return items, nil
}

// Upsert increments quantity with $inc; the fields that identify a new line
// are only written on insert.
func (mc *mongoCarts) Upsert(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	_, err := mc.carts.UpdateOne(ctx,
		bson.M{"_id": item.UserID},
		bson.M{"$setOnInsert": bson.M{"created_at": item.AddedAt}},
		options.Update().SetUpsert(true))
	if err != nil {
		return item, apperr.Unavailable(err, "create cart %s", item.UserID)
	}

	var stored models.CartItem
	err = mc.items.FindOneAndUpdate(ctx,
		bson.M{"user_id": item.UserID, "product_id": item.ProductID},
		bson.M{
			"$inc":         bson.M{"quantity": item.Quantity},
			"$setOnInsert": bson.M{"_id": item.ID, "added_at": item.AddedAt},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	return stored, apperr.Unavailable(err, "upsert cart item")
}

func (mc *mongoCarts) Delete(ctx context.Context, userID, productID string) (int64, error) {
	res, err := mc.items.DeleteMany(ctx, bson.M{"user_id": userID, "product_id": productID})
	if err != nil {
		return 0, apperr.Unavailable(err, "delete cart item")
	}
	return res.DeletedCount, nil
}

func (mc *mongoCarts) Clear(ctx context.Context, userID string) error {
	_, err := mc.items.DeleteMany(ctx, bson.M{"user_id": userID})
	return apperr.Unavailable(err, "clear cart %s", userID)
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// mongoRegistry stores decimal.Decimal as BSON Decimal128 so prices keep
// their exact value.
func mongoRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decodeDecimal))
	return reg
}

func encodeDecimal(ec bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != decimalType {
		return bsoncodec.ValueEncoderError{Name: "encodeDecimal", Types: []reflect.Type{decimalType}, Received: val}
	}
	d128, err := primitive.ParseDecimal128(val.Interface().(decimal.Decimal).String())
	if err != nil {
		return err
	}
	return vw.WriteDecimal128(d128)
}

func decodeDecimal(dc bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "decodeDecimal", Types: []reflect.Type{decimalType}, Received: val}
	}
	var d decimal.Decimal
	switch vr.Type() {
	case bsontype.Decimal128:
		d128, err := vr.ReadDecimal128()
		if err != nil {
			return err
		}
		if d, err = decimal.NewFromString(d128.String()); err != nil {
			return err
		}
	case bsontype.Double:
		f, err := vr.ReadDouble()
		if err != nil {
			return err
		}
		d = decimal.NewFromFloat(f)
	case bsontype.Int32:
		i, err := vr.ReadInt32()
		if err != nil {
			return err
		}
		d = decimal.NewFromInt32(i)
	case bsontype.Int64:
		i, err := vr.ReadInt64()
		if err != nil {
			return err
		}
		d = decimal.NewFromInt(i)
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return err
		}
		if d, err = decimal.NewFromString(s); err != nil {
			return err
		}
	default:
		return errors.Errorf("cannot decode %v into decimal.Decimal", vr.Type())
	}
	val.Set(reflect.ValueOf(d))
	return nil
}
