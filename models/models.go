/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tomoncle/pokerdb/database"
)

// Game is a stored planning session. The uuid primary key is generated by
// the application and preserved verbatim across backends, so cross-table
// references stay valid through export and import.
type Game struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	UUID string `bun:"uuid,pk,type:varchar(36)" json:"uuid"`
	Name string `bun:"name,notnull" json:"name"`
	Deck string `bun:"deck,notnull" json:"deck"`
}

// Vote is a single cast vote belonging to a game.
type Vote struct {
	bun.BaseModel `bun:"table:votes,alias:v"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	GameUUID   string    `bun:"game_uuid,notnull,type:varchar(36)" json:"game_uuid"`
	PlayerName string    `bun:"player_name,notnull" json:"player_name"`
	Value      string    `bun:"value" json:"value"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// NewGame returns a Game with a fresh identifier.
func NewGame(name, deck string) *Game {
	return &Game{UUID: uuid.NewString(), Name: name, Deck: deck}
}

func init() {
	// Priorities define foreign-key dependency order: parents first.
	database.RegisterTable(database.NewTableAdapter((*Game)(nil), "games", []string{"uuid"}, 10))
	database.RegisterTable(database.NewTableAdapter((*Vote)(nil), "votes", []string{"id"}, 20))

	database.RegisterForeignKeys(database.ForeignKeyConstraint{
		Table:           "votes",
		Column:          "game_uuid",
		ReferenceTable:  "games",
		ReferenceColumn: "uuid",
		OnDelete:        "CASCADE",
	})
}
