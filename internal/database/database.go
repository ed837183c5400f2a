package database

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"vendora_back_end/internal/config"
)

// --- Variables Globales ---
// Seul Mongo est obligatoire. Les autres clients restent nil s'ils ne sont pas configurés.
var (
	MongoClient *mongo.Client
	Mongo       *mongo.Database
	Redis       *redis.Client
	Elastic     *elasticsearch.Client
	MinIO       *minio.Client
	MinIOBucket string
)

// ConnectDatabases ouvre toutes les connexions.
func ConnectDatabases(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// 1. MongoDB
	if err := connectMongo(ctx, cfg); err != nil {
		return err
	}

	// 2. Redis
	connectRedis(ctx, cfg)

	// 3. Elasticsearch
	connectElastic(cfg)

	// 4. MinIO
	connectMinIO(ctx, cfg)

	zap.S().Info("✅ Toutes les bases de données sont connectées")
	return nil
}

// =============================================
// MONGODB
// =============================================
func connectMongo(ctx context.Context, cfg *config.Config) error {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(10 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "connexion MongoDB")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, "ping MongoDB")
	}

	MongoClient = client
	Mongo = client.Database(cfg.MongoDB)
	zap.S().Infof("✅ Connecté à MongoDB (base %s)", cfg.MongoDB)
	return nil
}

// Ping vérifie que MongoDB répond (utilisé par /health).
func Ping(ctx context.Context) error {
	if MongoClient == nil {
		return errors.New("MongoDB non initialisé")
	}
	return MongoClient.Ping(ctx, readpref.Primary())
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, cfg *config.Config) {
	if cfg.RedisHost == "" {
		zap.S().Warn("⚠️ REDIS_HOST absent, cache et rate limiting désactivés")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		zap.L().Warn("⚠️ Redis injoignable, cache désactivé", zap.Error(err))
		_ = client.Close()
		return
	}

	Redis = client
	zap.S().Info("✅ Connecté à Redis")
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(cfg *config.Config) {
	if cfg.ElasticURL == "" {
		zap.S().Warn("⚠️ ELASTIC_URL absent, recherche via MongoDB uniquement")
		return
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		zap.L().Warn("⚠️ Erreur création client Elasticsearch", zap.Error(err))
		return
	}

	res, err := client.Info()
	if err != nil {
		zap.L().Warn("⚠️ Elasticsearch injoignable", zap.Error(err))
		return
	}
	defer res.Body.Close()

	Elastic = client
	zap.S().Info("✅ Connecté à Elasticsearch")
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context, cfg *config.Config) {
	if cfg.MinioEndpoint == "" {
		zap.S().Warn("⚠️ MINIO_ENDPOINT absent, upload d'images désactivé")
		return
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		zap.L().Warn("⚠️ Erreur connexion MinIO", zap.Error(err))
		return
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		zap.L().Warn("⚠️ Erreur vérification bucket MinIO", zap.Error(err))
		return
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			zap.L().Warn("⚠️ Erreur création bucket MinIO", zap.Error(err))
			return
		}
		zap.S().Infof("🪣 Bucket créé : %s", cfg.MinioBucket)
	} else {
		zap.S().Infof("🪣 Bucket MinIO déjà présent : %s", cfg.MinioBucket)
	}

	MinIO = client
	MinIOBucket = cfg.MinioBucket
	zap.S().Infof("✅ Connecté à MinIO : %s", cfg.MinioEndpoint)
}

// Disconnect ferme proprement les connexions ouvertes.
func Disconnect(ctx context.Context) {
	if Redis != nil {
		if err := Redis.Close(); err != nil {
			zap.L().Warn("⚠️ Fermeture Redis", zap.Error(err))
		}
	}
	if MongoClient != nil {
		if err := MongoClient.Disconnect(ctx); err != nil {
			zap.L().Warn("⚠️ Fermeture MongoDB", zap.Error(err))
		}
		zap.S().Info("🔌 Connexion MongoDB fermée")
	}
}
