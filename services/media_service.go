package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
	"github.com/duochat/duochat/config"
	"github.com/duochat/duochat/db"
	apiError "github.com/duochat/duochat/errors"
)

// Define allowed MIME types and max file size
const (
	MaxFileSize      = 5 * 1024 * 1024 // 5 MB
	AllowedMimeTypes = "image/jpeg,image/png,image/gif"
	thumbnailSize    = 200
)

// MediaService stores profile pictures. The original goes to S3 untouched, a
// square thumbnail is generated alongside it, and both URLs are written back
// onto the user row.
type MediaService interface {
	UploadProfileImage(userID uint, file multipart.File, header *multipart.FileHeader) (string, *apiError.Error)
}

type mediaService struct {
	Config   *config.Config
	authRepo db.AuthRepository
}

func NewMediaService(authRepo db.AuthRepository, conf *config.Config) MediaService {
	return &mediaService{
		Config:   conf,
		authRepo: authRepo,
	}
}

func (m *mediaService) UploadProfileImage(userID uint, file multipart.File, header *multipart.FileHeader) (string, *apiError.Error) {
	defer file.Close()

	if err := validateFile(header); err != nil {
		return "", apiError.New(err.Error(), http.StatusBadRequest)
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return "", apiError.New("could not decode image", http.StatusBadRequest)
	}

	client, err := createS3Client()
	if err != nil {
		log.Printf("UploadProfileImage error creating S3 client: %v", err)
		return "", apiError.ErrInternalServerError
	}

	bucket := m.Config.AwsBucket
	if bucket == "" {
		bucket = os.Getenv("AWS_BUCKET")
	}

	key := fmt.Sprintf("%d_%s", userID, header.Filename)
	originalURL, err := m.uploadImage(client, bucket, key, img)
	if err != nil {
		log.Printf("UploadProfileImage error uploading original: %v", err)
		return "", apiError.ErrInternalServerError
	}

	thumb := imaging.Thumbnail(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	thumbURL, err := m.uploadImage(client, bucket, "thumb_"+key, thumb)
	if err != nil {
		log.Printf("UploadProfileImage error uploading thumbnail: %v", err)
		return "", apiError.ErrInternalServerError
	}

	if err := m.authRepo.UpsertUserImage(userID, originalURL, thumbURL); err != nil {
		log.Printf("UploadProfileImage error updating user: %v", err)
		return "", apiError.ErrInternalServerError
	}

	return originalURL, nil
}

func (m *mediaService) uploadImage(client *s3.Client, bucket string, key string, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode image: %v", err)
	}

	_, err := client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/jpeg"),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}

	region := m.Config.AwsRegion
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key), nil
}

func createS3Client() (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(os.Getenv("AWS_REGION")),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	return s3.NewFromConfig(cfg), nil
}

// validateFile checks the file type and size
func validateFile(file *multipart.FileHeader) error {
	if file.Size > MaxFileSize {
		return fmt.Errorf("file size exceeds limit of %d bytes", MaxFileSize)
	}

	mimeType := file.Header.Get("Content-Type")
	if !isValidMimeType(mimeType) {
		return fmt.Errorf("invalid file type: %s", mimeType)
	}

	return nil
}

// isValidMimeType checks if the MIME type is allowed
func isValidMimeType(mimeType string) bool {
	allowedTypes := strings.Split(AllowedMimeTypes, ",")
	for _, allowedType := range allowedTypes {
		if mimeType == allowedType {
			return true
		}
	}
	return false
}
