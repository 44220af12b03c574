// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import "golang.org/x/time/rate"

// admission is a single token-bucket limiter in front of the whole
// command registry. It is checked before the idempotency cache lookup,
// so a caller retrying a rate-limited request doesn't get charged twice
// for it once it's eventually admitted.
type admission struct {
	limiter *rate.Limiter
}

func newAdmission(requestsPerSecond float64, burst int) *admission {
	if requestsPerSecond <= 0 {
		return &admission{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &admission{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

func (a *admission) allow() bool { return a.limiter.Allow() }
