package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/config"
	"vendora_back_end/internal/database"
)

// MaxUploadSize borne la taille des images envoyées.
const MaxUploadSize = 5 << 20

var (
	ErrStorageUnavailable = errors.New("MinIO non initialisé")
	ErrInvalidImage       = errors.New("seules les images sont acceptées")
)

// UploadFile envoie un fichier sous folder/ et renvoie son URL publique.
// Remplacé dans les tests.
var UploadFile = uploadToMinio

func uploadToMinio(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", ErrStorageUnavailable
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrInvalidImage
	}
	if file.Size > MaxUploadSize {
		return "", errors.Errorf("fichier trop volumineux (%d octets)", file.Size)
	}

	f, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "ouverture fichier")
	}
	defer f.Close()

	objectName := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), strings.ToLower(filepath.Ext(file.Filename)))
	_, err = database.MinIO.PutObject(ctx, database.MinIOBucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, "envoi MinIO")
	}

	zap.S().Infof("🪣 Fichier envoyé: %s", objectName)
	return ObjectURL(objectName), nil
}

// ObjectURL construit l'URL publique d'un objet du bucket.
func ObjectURL(objectName string) string {
	scheme := "http"
	if config.App.MinioUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, config.App.MinioEndpoint, database.MinIOBucket, objectName)
}

// DeleteFile supprime l'objet désigné par son URL publique. Remplacé dans les tests.
var DeleteFile = removeFromMinio

func removeFromMinio(ctx context.Context, url string) error {
	if database.MinIO == nil {
		return ErrStorageUnavailable
	}
	objectName, ok := ObjectName(url)
	if !ok {
		return errors.Errorf("URL hors du bucket: %s", url)
	}
	if err := database.MinIO.RemoveObject(ctx, database.MinIOBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, "suppression MinIO")
	}
	zap.S().Infof("🗑️ Fichier supprimé: %s", objectName)
	return nil
}

// ObjectName retrouve le nom d'objet à partir d'une URL produite par ObjectURL.
func ObjectName(url string) (string, bool) {
	prefix := ObjectURL("")
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
