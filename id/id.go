/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package id implements the Identifier Service (§4.1): collision-resistant,
thread-safe generation of globally unique node/edge/transaction identifiers.
*/
package id

import "github.com/google/uuid"

/*
New returns a new 128-bit random identifier encoded as a lowercase
hexadecimal string. uuid.NewRandom (and therefore uuid.New) already draws
from a process-wide, mutex-guarded random source, so New is safe to call
concurrently without any extra locking here.
*/
func New() string {
	u := uuid.New()
	return hexString(u)
}

func hexString(u uuid.UUID) string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, 32)
	for i, b := range u {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf)
}
