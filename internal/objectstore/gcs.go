// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package objectstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// GCSEndpoint is the S3 interoperability endpoint of Google Cloud Storage.
const GCSEndpoint = "https://storage.googleapis.com"

const acceptEncodingHeader = "Accept-Encoding"

type acceptEncodingKey struct{}

// GCS rewrites Accept-Encoding in transit, so the header is excluded from
// the signature and restored afterwards.
var dropAcceptEncodingHeader = middleware.FinalizeMiddlewareFunc("DropAcceptEncodingHeader",
	func(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (out middleware.FinalizeOutput, metadata middleware.Metadata, err error) {
		req, ok := in.Request.(*smithyhttp.Request)
		if !ok {
			return out, metadata, &v4.SigningError{Err: fmt.Errorf("unexpected request middleware type %T", in.Request)}
		}
		ctx = middleware.WithStackValue(ctx, acceptEncodingKey{}, req.Header.Get(acceptEncodingHeader))
		req.Header.Del(acceptEncodingHeader)
		in.Request = req
		return next.HandleFinalize(ctx, in)
	},
)

var restoreAcceptEncodingHeader = middleware.FinalizeMiddlewareFunc("RestoreAcceptEncodingHeader",
	func(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (out middleware.FinalizeOutput, metadata middleware.Metadata, err error) {
		req, ok := in.Request.(*smithyhttp.Request)
		if !ok {
			return out, metadata, &v4.SigningError{Err: fmt.Errorf("unexpected request middleware type %T", in.Request)}
		}
		if ae, _ := middleware.GetStackValue(ctx, acceptEncodingKey{}).(string); ae != "" {
			req.Header.Set(acceptEncodingHeader, ae)
		}
		in.Request = req
		return next.HandleFinalize(ctx, in)
	},
)

// withGCSCompat adjusts an S3 client for the GCS interoperability API.
func withGCSCompat(o *s3.Options) {
	if o.BaseEndpoint == nil {
		o.BaseEndpoint = aws.String(GCSEndpoint)
	}
	// GCS may decompress objects in transit, which breaks stored checksums.
	o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
		if err := stack.Finalize.Insert(dropAcceptEncodingHeader, "Signing", middleware.Before); err != nil {
			return err
		}
		return stack.Finalize.Insert(restoreAcceptEncodingHeader, "Signing", middleware.After)
	})
}
