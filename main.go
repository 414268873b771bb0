// Copyright 2024 The Okteto Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"os"

	"github.com/okteto/khook/cmd"
	"github.com/okteto/khook/pkg/config"
	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/k8s/client"
	"github.com/okteto/khook/pkg/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"k8s.io/apimachinery/pkg/util/runtime"

	// Load the different library for authentication
	_ "k8s.io/client-go/plugin/pkg/client/auth/oidc"
)

func init() {
	// override client-go error handlers to downgrade the "logging before flag.Parse" error
	runtime.ErrorHandlers = []runtime.ErrorHandler{
		func(_ context.Context, e error, _ string, _ ...interface{}) {
			log.Debugf("unhandled error: %s", e)
		},
	}
}

func main() {
	log.Init(logrus.WarnLevel)
	if home, err := config.GetKhookHome(); err == nil {
		log.ConfigureFileLogger(home, "khook")
	}
	log.Info("start")

	root := cmd.NewRoot(client.NewKubeConfigProvider(), afero.NewOsFs())
	err := root.ExecuteContext(context.Background())

	if err != nil {
		log.Fail("%s", err.Error())
		var uErr oktetoErrors.UserError
		if errors.As(err, &uErr) && len(uErr.Hint) > 0 {
			log.Hint("    %s", uErr.Hint)
		}

		os.Exit(1)
	}
}
