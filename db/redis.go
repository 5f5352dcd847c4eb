// db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/aria7-op/schoolguard/logging"
	"github.com/aria7-op/schoolguard/model"
)

var (
	RedisClient   *redis.Client
	encryptionKey []byte
)

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encryptionKey = []byte(viper.GetString("redis.encryptionKey"))
	if len(encryptionKey) != 32 {
		return fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// CacheSubject stores a subject record encrypted at rest. Subject records
// carry personal data (location, role assignments) so they never land in
// Redis as plaintext.
func CacheSubject(ctx context.Context, subject *model.Subject) error {
	subjectJSON, err := json.Marshal(subject)
	if err != nil {
		return fmt.Errorf("failed to marshal subject: %w", err)
	}

	encryptedSubject, err := encrypt(subjectJSON)
	if err != nil {
		return fmt.Errorf("failed to encrypt subject: %w", err)
	}

	key := fmt.Sprintf("subject:%s", subject.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, base64.StdEncoding.EncodeToString(encryptedSubject), defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache subject: %w", err)
	}

	logger.Debug("Subject cached successfully", zap.String("subjectID", subject.ID))
	return nil
}

func GetCachedSubject(ctx context.Context, subjectID string) (*model.Subject, error) {
	key := fmt.Sprintf("subject:%s", subjectID)
	encryptedSubjectStr, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Subject not found in cache", zap.String("subjectID", subjectID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get subject from cache: %w", err)
	}

	encryptedSubject, err := base64.StdEncoding.DecodeString(encryptedSubjectStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode subject: %w", err)
	}

	subjectJSON, err := decrypt(encryptedSubject)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt subject: %w", err)
	}

	var subject model.Subject
	err = json.Unmarshal(subjectJSON, &subject)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal subject: %w", err)
	}

	logger.Debug("Subject retrieved from cache", zap.String("subjectID", subjectID))
	return &subject, nil
}

func DeleteCachedSubject(ctx context.Context, subjectID string) error {
	key := fmt.Sprintf("subject:%s", subjectID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete subject from cache: %w", err)
	}
	logger.Debug("Subject deleted from cache", zap.String("subjectID", subjectID))
	return nil
}

// CachePolicySet stores the ordered list of active policies for one
// (resource type, action) pair.
func CachePolicySet(ctx context.Context, resourceType, action string, policies []*model.Policy) error {
	policiesJSON, err := json.Marshal(policies)
	if err != nil {
		return fmt.Errorf("failed to marshal policy set: %w", err)
	}

	key := fmt.Sprintf("policies:%s:%s", resourceType, action)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, policiesJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache policy set: %w", err)
	}

	logger.Debug("Policy set cached successfully",
		zap.String("resourceType", resourceType),
		zap.String("action", action),
		zap.Int("count", len(policies)))
	return nil
}

func GetCachedPolicySet(ctx context.Context, resourceType, action string) ([]*model.Policy, error) {
	key := fmt.Sprintf("policies:%s:%s", resourceType, action)
	policiesJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Policy set not found in cache",
			zap.String("resourceType", resourceType),
			zap.String("action", action))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get policy set from cache: %w", err)
	}

	var policies []*model.Policy
	err = json.Unmarshal([]byte(policiesJSON), &policies)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy set: %w", err)
	}

	logger.Debug("Policy set retrieved from cache",
		zap.String("resourceType", resourceType),
		zap.String("action", action))
	return policies, nil
}

func DeleteCachedPolicySet(ctx context.Context, resourceType, action string) error {
	key := fmt.Sprintf("policies:%s:%s", resourceType, action)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete policy set from cache: %w", err)
	}
	logger.Debug("Policy set deleted from cache",
		zap.String("resourceType", resourceType),
		zap.String("action", action))
	return nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}
