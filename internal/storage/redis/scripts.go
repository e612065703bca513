package redis

const (
	// appendSessionScript atomically appends a session record and bumps
	// the player's daily total. Keys carry a 90 day TTL so old days
	// expire on their own.
	appendSessionScript = `
local records_key = KEYS[1]   -- getajob:sessions:{date}
local totals_key = KEYS[2]    -- getajob:playtime:{date}

local record = ARGV[1]
local player_id = ARGV[2]
local minutes = tonumber(ARGV[3])

redis.call('RPUSH', records_key, record)
redis.call('HINCRBY', totals_key, player_id, minutes)

-- 90 days = 7776000 seconds
redis.call('EXPIRE', records_key, 7776000)
redis.call('EXPIRE', totals_key, 7776000)

return 'OK'
`
)
