// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
)

// meshBlobRecord is the single-table item shape: Key is the partition key,
// Value holds the opaque blob bytes.
type meshBlobRecord struct {
	Key   string `dynamo:"Key,hash"`
	Value []byte `dynamo:"Value"`
}

// DynamoStore is a Store backed by a single DynamoDB table. Grounded on the
// teacher's DynamoDBDatabase (server/cloud/db/dynamodb.go), generalized from
// its fixed scores/servers tables to one generic key/value table.
type DynamoStore struct {
	svc   *dynamodb.DynamoDB
	db    *dynamo.DB
	table dynamo.Table
}

func NewDynamoStore(sess *session.Session, tableName string) *DynamoStore {
	d := &DynamoStore{svc: dynamodb.New(sess)}
	d.db = dynamo.NewFromIface(d.svc)
	d.table = d.db.Table(tableName)
	return d
}

func (d *DynamoStore) Get(key string) ([]byte, error) {
	var rec meshBlobRecord
	err := d.table.Get("Key", key).One(&rec)
	if err != nil {
		if err == dynamo.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec.Value, nil
}

func (d *DynamoStore) Put(key string, value []byte) error {
	return d.table.Put(meshBlobRecord{Key: key, Value: value}).Run()
}

func (d *DynamoStore) Delete(key string) error {
	return d.table.Delete("Key", key).Run()
}

func (d *DynamoStore) ListKeys(prefix string) (keys []string, err error) {
	query := d.table.Scan().Filter("begins_with(Key, ?)", prefix).Iter()

	for {
		var rec meshBlobRecord
		ok := query.Next(&rec)
		if !ok {
			err = query.Err()
			return
		}
		keys = append(keys, rec.Key)
	}
}
