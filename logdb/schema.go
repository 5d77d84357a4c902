// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// the event table, keyed by sequence (block number and event index)
const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	blockTime INTEGER NOT NULL,
	program BLOB NOT NULL,
	name TEXT NOT NULL,
	subject BLOB NOT NULL,
	object BLOB NOT NULL,
	amount INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(blockTime);
CREATE INDEX IF NOT EXISTS event_i1 ON event(subject, seq);
CREATE INDEX IF NOT EXISTS event_i2 ON event(object, seq);
`
