package network

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/acadtrust/anchor/constants"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

/*
ArtifactDownload streams a submission artifact from an S3 bucket and
computes its fingerprint digest along the way. LocalPath may be
/dev/null in cases where the caller only wants the digest, which is
the common case: we can fingerprint a 10GB artifact without it ever
touching local disk.
*/
type ArtifactDownload struct {
	AWSRegion    string
	BucketName   string
	KeyName      string
	LocalPath    string
	Digest       string
	BytesCopied  int64
	ErrorMessage string

	session *session.Session
}

// NewArtifactDownload sets up a new artifact download. Params:
//
// region     - The name of the AWS region to download from,
//              e.g. us-east-1.
// bucketName - The name of the bucket holding the artifact.
// keyName    - The key of the artifact to download.
// localPath  - Path to which to save the downloaded artifact.
//              Use /dev/null when you only want the digest.
func NewArtifactDownload(region, bucketName, keyName, localPath string) *ArtifactDownload {
	return &ArtifactDownload{
		AWSRegion:  region,
		BucketName: bucketName,
		KeyName:    keyName,
		LocalPath:  localPath,
	}
}

// GetSession returns the AWS session for this download, creating it
// if necessary. Credentials come from AWS_ACCESS_KEY_ID and
// AWS_SECRET_ACCESS_KEY in the environment.
func (download *ArtifactDownload) GetSession() (*session.Session, error) {
	if download.session == nil {
		if os.Getenv("AWS_ACCESS_KEY_ID") == "" || os.Getenv("AWS_SECRET_ACCESS_KEY") == "" {
			return nil, fmt.Errorf("AWS_ACCESS_KEY_ID and/or " +
				"AWS_SECRET_ACCESS_KEY not set in environment")
		}
		creds := credentials.NewEnvCredentials()
		download.session = session.New(&aws.Config{
			Region:      aws.String(download.AWSRegion),
			Credentials: creds,
		})
		if download.session == nil {
			return nil, fmt.Errorf("AWS Session returned nil")
		}
	}
	return download.session, nil
}

// Fetch downloads the artifact, streaming it through sha256. When
// this returns with an empty ErrorMessage, the fingerprint is in
// download.Digest. Errors land in ErrorMessage rather than being
// returned, following the pattern of our other network operations:
// the caller checks ErrorMessage once, after the operation.
func (download *ArtifactDownload) Fetch() {
	download.ErrorMessage = ""
	_session, err := download.GetSession()
	if err != nil {
		download.ErrorMessage = err.Error()
		return
	}
	service := s3.New(_session)
	if service == nil {
		download.ErrorMessage = fmt.Sprintf("Cannot create S3 service for region %s",
			download.AWSRegion)
		return
	}
	params := &s3.GetObjectInput{
		Bucket: aws.String(download.BucketName),
		Key:    aws.String(download.KeyName),
	}
	obj, err := service.GetObject(params)
	if err != nil {
		download.ErrorMessage = fmt.Sprintf("Error fetching %s/%s: %v",
			download.BucketName, download.KeyName, err)
		return
	}
	defer obj.Body.Close()

	outFile, err := os.Create(download.LocalPath)
	if err != nil {
		download.ErrorMessage = fmt.Sprintf("Cannot open local path '%s': %v",
			download.LocalPath, err)
		return
	}
	defer outFile.Close()

	_hash := sha256.New()
	multiWriter := io.MultiWriter(outFile, _hash)
	bytesCopied, err := io.Copy(multiWriter, obj.Body)
	if err != nil {
		download.ErrorMessage = fmt.Sprintf("Error streaming %s/%s: %v",
			download.BucketName, download.KeyName, err)
		return
	}
	download.BytesCopied = bytesCopied
	download.Digest = fmt.Sprintf("%s%x", constants.DigestPrefix, _hash.Sum(nil))
}
